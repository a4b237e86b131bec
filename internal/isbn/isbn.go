// Package isbn はISBN（国際標準図書番号）の解析・検証・相互変換を提供する。
// 入力文字列のクリーニング、桁数と文字種の検証、チェックディジット検証、
// グループ記号からの地域・言語判定、ISBN-10とISBN-13の相互変換を行う。
package isbn

import (
	"fmt"
	"regexp"
	"strings"
)

// Format はISBNの桁数形式を表す。
type Format string

const (
	// FormatTen は10桁のISBN（ISBN-10）。
	FormatTen Format = "TEN"
	// FormatThirteen は13桁のISBN（ISBN-13）。
	FormatThirteen Format = "THIRTEEN"
)

// 検証エラーコード
const (
	ErrCodeInvalidLength         = "INVALID_LENGTH"
	ErrCodeInvalidFormatISBN10   = "INVALID_FORMAT_ISBN10"
	ErrCodeInvalidFormatISBN13   = "INVALID_FORMAT_ISBN13"
	ErrCodeInvalidEANPrefix      = "INVALID_EAN_PREFIX"
	ErrCodeInvalidChecksumISBN10 = "INVALID_CHECKSUM_ISBN10"
	ErrCodeInvalidChecksumISBN13 = "INVALID_CHECKSUM_ISBN13"
)

// ValidationError は1件の構造化された検証エラーを表す。
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Info は1つの入力文字列を解析した結果。
// 解析ごとに新しく生成され、生成後は変更しない。
type Info struct {
	Original string `json:"original"`
	Cleaned  string `json:"cleaned"`
	Format   Format `json:"format,omitempty"`
	IsValid  bool   `json:"is_valid"`

	EANPrefix       string `json:"ean_prefix,omitempty"`
	GroupIdentifier string `json:"group_identifier,omitempty"`
	PublisherCode   string `json:"publisher_code,omitempty"`
	ItemNumber      string `json:"item_number,omitempty"`
	CheckDigit      string `json:"check_digit,omitempty"`

	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
	ISBN10   string `json:"isbn10,omitempty"`
	ISBN13   string `json:"isbn13,omitempty"`
	EAN13    string `json:"ean13,omitempty"`

	Errors []ValidationError `json:"errors"`
}

var (
	// labelPattern は先頭の「ISBN」「ISBN:」「ISBN-13:」などのラベルに一致する。
	// 10・13の桁数表記は後ろにコロンか空白が続く場合だけラベルとみなす。
	labelPattern = regexp.MustCompile(`(?i)^isbn(?:-?1[03](?:\s*[:：]\s*|\s+)|\s*[:：]?\s*)`)
	// separatorReplacer は区切り文字（ハイフン・空白）を除去する。
	separatorReplacer = strings.NewReplacer("-", "", " ", "", "‐", "", "－", "", "　", "", "\t", "")

	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern = regexp.MustCompile(`^\d{13}$`)
)

// Clean は入力文字列からラベル・区切り文字を除去し、大文字化する。
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = labelPattern.ReplaceAllString(s, "")
	s = separatorReplacer.Replace(s)
	return strings.ToUpper(s)
}

// Analyze は入力文字列をISBNとして解析する。
// エラーは返さず、失敗はすべてErrorsとIsValidで表現する。
func Analyze(raw string) *Info {
	info := &Info{
		Original: raw,
		Cleaned:  Clean(raw),
		Errors:   []ValidationError{},
	}

	if !checkFormat(info) {
		return info
	}

	if !decompose(info) {
		return info
	}

	verifyChecksum(info)

	if g, ok := lookupGroup(info.GroupIdentifier); ok {
		info.Region = g.Region
		info.Language = g.Language
	}

	crossConvert(info)
	info.EAN13 = info.ISBN13

	info.IsValid = len(info.Errors) == 0
	return info
}

// checkFormat は桁数と文字種を検証する。失敗した場合はfalseを返す。
func checkFormat(info *Info) bool {
	c := info.Cleaned
	switch len(c) {
	case 10:
		info.Format = FormatTen
		if !isbn10Pattern.MatchString(c) {
			info.addError(ErrCodeInvalidFormatISBN10,
				"ISBN-10は9桁の数字と末尾の数字またはXで構成される必要があります",
				"9桁の数字 + 数字またはX", c)
			return false
		}
	case 13:
		info.Format = FormatThirteen
		if !isbn13Pattern.MatchString(c) {
			info.addError(ErrCodeInvalidFormatISBN13,
				"ISBN-13は13桁の数字で構成される必要があります",
				"13桁の数字", c)
			return false
		}
	default:
		info.addError(ErrCodeInvalidLength,
			fmt.Sprintf("ISBNの桁数が不正です: %d桁", len(c)),
			"10または13", fmt.Sprintf("%d", len(c)))
		return false
	}
	return true
}

// decompose はISBNを構造要素（EANプレフィックス・グループ記号・出版者記号・書名記号・チェックディジット）に分解する。
// EANプレフィックスが不正な場合はfalseを返す。
func decompose(info *Info) bool {
	c := info.Cleaned
	var body string

	if info.Format == FormatThirteen {
		prefix := c[:3]
		if prefix != "978" && prefix != "979" {
			info.addError(ErrCodeInvalidEANPrefix,
				fmt.Sprintf("EANプレフィックスが不正です: %s", prefix),
				"978または979", prefix)
			return false
		}
		info.EANPrefix = prefix
		body = c[3:12]
		info.CheckDigit = c[12:]
	} else {
		body = c[:9]
		info.CheckDigit = c[9:]
	}

	group := findGroup(body)
	if group == "" {
		return true
	}
	info.GroupIdentifier = group
	info.PublisherCode, info.ItemNumber = splitPublisher(group, body[len(group):])
	return true
}

// verifyChecksum はチェックディジットを検証する。
// 失敗してもフィールドの算出は継続するため、エラーを記録するだけで停止しない。
func verifyChecksum(info *Info) {
	switch info.Format {
	case FormatTen:
		// 全桁0は加重和の条件を満たすが、ISBNとしては割り当てられない
		if !validISBN10Checksum(info.Cleaned) || strings.Trim(info.Cleaned, "0") == "" {
			info.addError(ErrCodeInvalidChecksumISBN10,
				"ISBN-10のチェックディジットが一致しません",
				isbn10CheckDigit(info.Cleaned[:9]), info.Cleaned[9:])
		}
	case FormatThirteen:
		if !validISBN13Checksum(info.Cleaned) {
			info.addError(ErrCodeInvalidChecksumISBN13,
				"ISBN-13のチェックディジットが一致しません",
				isbn13CheckDigit(info.Cleaned[:12]), info.Cleaned[12:])
		}
	}
}

// crossConvert はISBN-10とISBN-13を相互変換する。
// 979で始まるISBN-13にはISBN-10が存在しないため、ISBN10は空のままとする。
func crossConvert(info *Info) {
	c := info.Cleaned
	switch info.Format {
	case FormatTen:
		info.ISBN10 = c
		info.ISBN13 = toISBN13(c)
	case FormatThirteen:
		info.ISBN13 = c
		if info.EANPrefix == "978" {
			info.ISBN10 = toISBN10(c)
		}
	}
}

func (info *Info) addError(code, message, expected, actual string) {
	info.Errors = append(info.Errors, ValidationError{
		Code:     code,
		Message:  message,
		Expected: expected,
		Actual:   actual,
	})
}

// Normalize は問い合わせに使用する正規化済みの識別子を返す。
// ISBN-13があればISBN-13、なければISBN-10、どちらもなければクリーニング済み文字列を返す。
func Normalize(info *Info) string {
	switch {
	case info.ISBN13 != "":
		return info.ISBN13
	case info.ISBN10 != "":
		return info.ISBN10
	default:
		return info.Cleaned
	}
}
