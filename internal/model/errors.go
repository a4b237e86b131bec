package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, book, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidISBN            = "INVALID_ISBN"
	ErrCodeBookNotFound           = "BOOK_NOT_FOUND"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	ErrCodeInternal               = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	ErrCodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
)

// NewInvalidISBNError は無効なISBNエラーを生成する。
func NewInvalidISBNError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidISBN,
		Message:  fmt.Sprintf("無効なISBNです: %s", reason),
		Category: "validation",
		Action:   "10桁または13桁のISBNを確認して再度入力してください。",
	}
}

// NewBookNotFoundError は書誌情報未検出エラーを生成する。
func NewBookNotFoundError(isbn string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("書誌情報が見つかりませんでした: %s", isbn),
		Category: "book",
		Action:   "ISBNが正しいか確認するか、しばらく待ってから再度お試しください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewPersistenceUnavailableError は永続化層が未設定の場合のエラーを生成する。
func NewPersistenceUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodePersistenceUnavailable,
		Message:  "書誌情報の保存先が設定されていません。",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "指定された時間が経過してから再度お試しください。",
	}
}

// NewUpstreamUnavailableError は外部の書誌情報APIが利用できない場合のエラーを生成する。
func NewUpstreamUnavailableError(source string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("外部の書誌情報サービスに接続できませんでした: %s", source),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
