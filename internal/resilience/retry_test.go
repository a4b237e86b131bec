package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testError はリトライ可否を指定できるテスト用エラー。
type testError struct {
	retryable  bool
	retryAfter time.Duration
}

func (e *testError) Error() string                 { return "test error" }
func (e *testError) Retryable() bool               { return e.retryable }
func (e *testError) RetryAfterHint() time.Duration { return e.retryAfter }

// recordSleep は待機時間を記録するだけのSleep実装を返す。
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func zeroRand() float64 { return 0 }

func TestBackoff_Doubling(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Rand: zeroRand}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Rand: func() float64 { return 0.99 }}

	for attempt := 0; attempt < 20; attempt++ {
		if got := p.Backoff(attempt); got > 10*time.Second {
			t.Fatalf("Backoff(%d) = %v は上限10秒を超えてはならない", attempt, got)
		}
	}
}

func TestBackoff_JitterAtMostTenPercent(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Rand: func() float64 { return 0.999 }}

	got := p.Backoff(1)
	if got < 2*time.Second || got > 2200*time.Millisecond {
		t.Errorf("Backoff(1) = %v, want 2s〜2.2s", got)
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Rand: zeroRand, Sleep: recordSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &testError{retryable: true}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("呼び出し回数 = %d, want 3", calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("待機時間 = %v, want [1s 2s]", delays)
	}
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, Sleep: recordSleep(&delays)}

	calls := 0
	wantErr := &testError{retryable: false}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("リトライ不可のエラーは1回で打ち切るべき: calls = %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("待機は発生しないはず: %v", delays)
	}
}

func TestDo_PlainErrorIsNotRetried(t *testing.T) {
	p := Policy{MaxAttempts: 3, Sleep: recordSleep(new([]time.Duration))}

	calls := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("plain")
	})
	if calls != 1 {
		t.Errorf("Retryableを実装しないエラーはリトライしない: calls = %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, Rand: zeroRand, Sleep: recordSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return &testError{retryable: true}
	})

	if err == nil {
		t.Fatal("Do() はエラーを返すべき")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(delays) != 2 {
		t.Errorf("最後の試行の後は待機しない: delays = %v", delays)
	}
}

func TestDo_RetryAfterHintCappedByMaxDelay(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Rand: zeroRand, Sleep: recordSleep(&delays)}

	_ = p.Do(context.Background(), func(context.Context) error {
		return &testError{retryable: true, retryAfter: 60 * time.Second}
	})

	if len(delays) != 1 || delays[0] != 10*time.Second {
		t.Errorf("待機時間 = %v, want [10s]", delays)
	}
}

func TestDo_ContextCanceledStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour}
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return &testError{retryable: true}
	})

	if err == nil {
		t.Fatal("Do() はエラーを返すべき")
	}
	if calls != 1 {
		t.Errorf("キャンセル済みコンテキストでは待機せずに終了する: calls = %d", calls)
	}
}
