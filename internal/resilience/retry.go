// Package resilience は外部API呼び出しのためのリトライ（指数バックオフ）と
// サーキットブレーカーを提供する。
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	// defaultJitter はバックオフ遅延に加算するランダムジッターの最大割合（10%）。
	defaultJitter = 0.1
)

// Retryable はリトライ可否を自己申告するエラーのインターフェース。
// このインターフェースを実装しないエラーはリトライしない。
type Retryable interface {
	Retryable() bool
}

// RetryAfterHinter は取得元が指定した待機時間を持つエラーのインターフェース。
type RetryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// Policy はリトライ方針。
type Policy struct {
	// MaxAttempts は初回を含む最大試行回数。1以下の場合はリトライしない。
	MaxAttempts int
	// BaseDelay は初回リトライまでの遅延。試行ごとに2倍になる。
	BaseDelay time.Duration
	// MaxDelay はバックオフ遅延の上限。
	MaxDelay time.Duration
	// Jitter は遅延に加算するランダムジッターの最大割合。0の場合は10%。
	Jitter float64

	// Sleep は待機処理。nilの場合はコンテキスト対応のタイマー待機を使う。
	Sleep func(ctx context.Context, d time.Duration) error
	// Rand は[0,1)の乱数を返す。nilの場合はmath/randを使う。
	Rand func() float64
	// OnRetry はリトライ直前に呼ばれる（ログ出力用）。
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Backoff は試行回数（0始まり）に対する待機時間を計算する。
// BaseDelay * 2^attempt にジッターを加え、MaxDelayで打ち切る。
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	jitter := p.Jitter
	if jitter <= 0 {
		jitter = defaultJitter
	}
	random := rand.Float64
	if p.Rand != nil {
		random = p.Rand
	}
	delay += time.Duration(float64(delay) * jitter * random())

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do はfnをリトライ方針に従って実行する。
// リトライ不可のエラー、試行回数の上限、コンテキストのキャンセルで打ち切り、
// 最後に発生したエラーを返す。
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == attempts-1 {
			return err
		}

		delay := p.Backoff(attempt)
		var hinter RetryAfterHinter
		if errors.As(err, &hinter) && hinter.RetryAfterHint() > delay {
			delay = hinter.RetryAfterHint()
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return err
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable はエラーがリトライ可能かどうかを返す。
func IsRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
