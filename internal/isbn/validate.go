package isbn

import (
	"errors"
	"regexp"
	"strings"
)

// InvalidError はISBNの検証失敗を表す。
// 構造・チェックディジットの検証失敗は致命的であり、外部APIへの問い合わせは行わない。
type InvalidError struct {
	Input   string
	Code    string
	Message string
	Info    *Info
}

// Error はerrorインターフェースを実装する。
func (e *InvalidError) Error() string {
	return e.Message
}

// IsInvalid はerrがISBN検証エラーかどうかを判定する。
func IsInvalid(err error) bool {
	var invalid *InvalidError
	return errors.As(err, &invalid)
}

// Validate はAnalyzeを実行し、無効な場合は最初の検証エラーを持つInvalidErrorを返す。
func Validate(raw string) (*Info, error) {
	info := Analyze(raw)
	if info.IsValid {
		return info, nil
	}
	first := info.Errors[0]
	return info, &InvalidError{
		Input:   raw,
		Code:    first.Code,
		Message: first.Message,
		Info:    info,
	}
}

// ConvertToISBN13 は有効なISBN-10をISBN-13に変換する。
func ConvertToISBN13(isbn10 string) (string, error) {
	info, err := Validate(isbn10)
	if err != nil {
		return "", err
	}
	if info.Format != FormatTen {
		return "", &InvalidError{
			Input:   isbn10,
			Code:    "NOT_ISBN10",
			Message: "ISBN-10ではありません",
			Info:    info,
		}
	}
	return info.ISBN13, nil
}

// ConvertToISBN10 は978で始まる有効なISBN-13をISBN-10に変換する。
// 979で始まるISBN-13には対応するISBN-10が存在しないためエラーを返す。
func ConvertToISBN10(isbn13 string) (string, error) {
	info, err := Validate(isbn13)
	if err != nil {
		return "", err
	}
	if info.Format != FormatThirteen {
		return "", &InvalidError{
			Input:   isbn13,
			Code:    "NOT_ISBN13",
			Message: "ISBN-13ではありません",
			Info:    info,
		}
	}
	if info.ISBN10 == "" {
		return "", &InvalidError{
			Input:   isbn13,
			Code:    "NO_ISBN10_EQUIVALENT",
			Message: "979で始まるISBN-13はISBN-10に変換できません",
			Info:    info,
		}
	}
	return info.ISBN10, nil
}

var bookBarcodePattern = regexp.MustCompile(`^97[89]\d{10}$`)

// ExtractFromBarcode はEAN-13バーコードの読み取り値を解析する。
// 書籍のバーコード（978/979で始まる13桁の数字）でない場合はnilを返す。
// 書籍バーコードだがISBNとして無効な場合は、IsValid=falseのInfoを返す。
func ExtractFromBarcode(barcode string) *Info {
	code := strings.TrimSpace(barcode)
	if !bookBarcodePattern.MatchString(code) {
		return nil
	}
	return Analyze(code)
}

// IsRegionMatch は有効なISBNのグループ記号が指定地域に一致するかを判定する。
func IsRegionMatch(isbn, region string) bool {
	info := Analyze(isbn)
	return info.IsValid && info.Region != "" && strings.EqualFold(info.Region, region)
}

// BatchResult は一括検証の結果。
type BatchResult struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
}

// ValidateBatch は複数のISBNを個別に検証し、有効・無効に振り分ける。
// 1件の失敗が他の検証を中断することはない。
func ValidateBatch(isbns []string) BatchResult {
	result := BatchResult{
		Valid:   []string{},
		Invalid: []string{},
	}
	for _, s := range isbns {
		if _, err := Validate(s); err != nil {
			result.Invalid = append(result.Invalid, s)
			continue
		}
		result.Valid = append(result.Valid, s)
	}
	return result
}
