package resilience

import (
	"sync"
	"time"
)

// State はサーキットブレーカーの状態。
type State int

const (
	// StateClosed は通常状態。呼び出しはすべて通過する。
	StateClosed State = iota
	// StateOpen は遮断状態。リセット時間が経過するまで呼び出しをスキップする。
	StateOpen
	// StateHalfOpen は試行状態。次の呼び出しの結果でCLOSEDかOPENに遷移する。
	StateHalfOpen
)

// String は状態の文字列表現を返す。
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerSnapshot はブレーカー状態のスナップショット。
type BreakerSnapshot struct {
	State           State
	FailureCount    int
	LastFailureTime time.Time
}

// Breaker は取得元ごとのサーキットブレーカー。
// 連続失敗がしきい値に達するとOPENになり、最後の失敗からリセット時間が経過すると
// HALF_OPENに遷移して試行を1回だけ許可する。試行の結果が記録されるまで他の呼び出しは許可しない。
type Breaker struct {
	name         string
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
	trialInFlight   bool

	onStateChange func(name string, from, to State)
}

// BreakerOption はBreakerのオプション。
type BreakerOption func(*Breaker)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithStateChange は状態遷移時のコールバックを設定する。
func WithStateChange(fn func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

// NewBreaker は新しいBreakerを生成する。初期状態はCLOSED。
func NewBreaker(name string, threshold int, resetTimeout time.Duration, opts ...BreakerOption) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	b := &Breaker{
		name:         name,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name はブレーカーの名前を返す。
func (b *Breaker) Name() string {
	return b.name
}

// Allow は呼び出しを許可するかどうかを返す。
// OPENでリセット時間が経過していればHALF_OPENに遷移し、試行を1回だけ許可する。
// 許可された呼び出しは結果をRecordSuccess、RecordFailure、Releaseのいずれかで返すこと。
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailureTime) <= b.resetTimeout {
			return false
		}
		b.setState(StateHalfOpen)
		b.trialInFlight = true
		return true
	case StateHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
		return true
	default:
		return true
	}
}

// Release は結果を判定できなかった呼び出しを成功・失敗のどちらにも数えずに終える。
// HALF_OPENの試行枠は次の呼び出しに譲られる。
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false
}

// RecordSuccess は成功を記録し、失敗回数をリセットしてCLOSEDに戻す。
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.trialInFlight = false
	b.setState(StateClosed)
}

// RecordFailure は失敗を記録する。
// HALF_OPENでの失敗、またはしきい値到達でOPENに遷移する。
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.now()
	b.trialInFlight = false

	if b.state == StateHalfOpen || b.failureCount >= b.threshold {
		b.setState(StateOpen)
	}
}

// State は現在の状態を返す。
// リセット時間の経過による遷移は次のAllow呼び出しまで反映しない。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot は現在の状態のコピーを返す。
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerSnapshot{
		State:           b.state,
		FailureCount:    b.failureCount,
		LastFailureTime: b.lastFailureTime,
	}
}

// setState は状態を遷移させる。呼び出し側でロックを保持していること。
func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
