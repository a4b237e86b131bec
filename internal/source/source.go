// Package source は書誌情報の取得元（外部API）に共通する結果型とエラー分類を定義する。
// 各取得元クライアントは検索結果をResult（Found / NotFound / Failed）として返し、
// 呼び出し側はパターンマッチで集約する。
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// Searcher は1つの取得元に対するISBN検索のインターフェース。
type Searcher interface {
	// Name は取得元の名前を返す（ログ・メトリクス・集約エラーに使用）。
	Name() string
	// Search は正規化済みISBNで書誌情報を検索する。
	Search(ctx context.Context, isbn string) Result
}

// Outcome は検索結果の種別。
type Outcome int

const (
	// OutcomeFound は必須項目を備えた書誌レコードが見つかったことを示す。
	OutcomeFound Outcome = iota
	// OutcomeNotFound は取得元が正常に応答したが該当レコードがなかったことを示す。
	OutcomeNotFound
	// OutcomeFailed は通信・HTTP・設定などの理由で検索に失敗したことを示す。
	OutcomeFailed
)

// String はOutcomeの文字列表現を返す。
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result は取得元1件の検索結果。
// OutcomeFoundの場合のみBookが設定され、それ以外はErrが設定される。
type Result struct {
	Outcome Outcome
	Book    *model.Book
	Err     *Error
}

// Found は検索成功の結果を生成する。
func Found(book *model.Book) Result {
	return Result{Outcome: OutcomeFound, Book: book}
}

// NotFound は該当なしの結果を生成する。
func NotFound(name, isbn string) Result {
	return Result{
		Outcome: OutcomeNotFound,
		Err: &Error{
			Source:  name,
			Kind:    KindNotFound,
			Message: fmt.Sprintf("該当する書誌情報がありません: %s", isbn),
		},
	}
}

// Failed は検索失敗の結果を生成する。
func Failed(err *Error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}

// Kind は取得元エラーの分類。
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindTransport     Kind = "transport"
	KindBadRequest    Kind = "bad_request"
	KindAuth          Kind = "auth"
	KindForbidden     Kind = "forbidden"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindRateLimited   Kind = "rate_limited"
	KindServer        Kind = "server"
	KindParse         Kind = "parse"
	KindNotFound      Kind = "not_found"
	KindCircuitOpen   Kind = "circuit_open"
)

// Error は取得元ごとの型付きエラー。
type Error struct {
	Source     string
	Kind       Kind
	Message    string
	StatusCode int
	// RetryAfter はレート制限時に取得元が示した再試行までの待機時間。
	RetryAfter time.Duration
	// Alert はオペレーターへの通知が必要なエラー（APIキー不正など）であることを示す。
	Alert bool
	Err   error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s] %s", e.Source, e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap はerrors.Is / errors.Asのために内部エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable はリトライで回復し得るエラーかどうかを返す。
// 通信失敗・タイムアウト・5xx・レート制限のみが対象。
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindServer, KindRateLimited:
		return true
	default:
		return false
	}
}

// RetryAfterHint は取得元が指定した再試行までの待機時間を返す。
func (e *Error) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// ClassifyStatus はHTTPステータスコードをエラー分類に変換する。
// 200は呼び出し側で成功として扱うため、ここでは扱わない。
func ClassifyStatus(statusCode int) Kind {
	switch {
	case statusCode == 400:
		return KindBadRequest
	case statusCode == 401:
		return KindAuth
	case statusCode == 403:
		return KindForbidden
	case statusCode == 429:
		return KindRateLimited
	case statusCode >= 500:
		return KindServer
	default:
		return KindBadRequest
	}
}
