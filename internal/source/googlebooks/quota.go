package googlebooks

import (
	"sync"
	"time"
)

// QuotaState はクォータ状態のスナップショット。
type QuotaState struct {
	DailyQuotaExceeded   bool      `json:"daily_quota_exceeded"`
	PerUserQuotaExceeded bool      `json:"per_user_quota_exceeded"`
	LastResetTime        time.Time `json:"last_reset_time"`
	RequestsToday        int       `json:"requests_today"`
}

// QuotaTracker はGoogle Books APIの1日あたりのクォータ状態を追跡する。
// ローカル時刻の日付が変わると状態をリセットする。
type QuotaTracker struct {
	now func() time.Time

	mu    sync.Mutex
	state QuotaState
}

// NewQuotaTracker は新しいQuotaTrackerを生成する。nowがnilの場合はtime.Nowを使う。
func NewQuotaTracker(now func() time.Time) *QuotaTracker {
	if now == nil {
		now = time.Now
	}
	return &QuotaTracker{
		now:   now,
		state: QuotaState{LastResetTime: now()},
	}
}

// DailyExceeded は日次クォータを超過しているかどうかを返す。
func (q *QuotaTracker) DailyExceeded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	return q.state.DailyQuotaExceeded
}

// RecordRequest は送信したリクエストを1件記録する。
func (q *QuotaTracker) RecordRequest() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	q.state.RequestsToday++
}

// MarkDailyExceeded は日次クォータ超過を記録する。
func (q *QuotaTracker) MarkDailyExceeded() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	q.state.DailyQuotaExceeded = true
}

// MarkPerUserExceeded はユーザー単位のレート制限超過を記録する。
func (q *QuotaTracker) MarkPerUserExceeded() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	q.state.PerUserQuotaExceeded = true
}

// Snapshot は現在の状態を返す。
func (q *QuotaTracker) Snapshot() QuotaState {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	return q.state
}

// rolloverLocked は前回のリセットからローカル時刻の日付が変わっていれば状態をリセットする。
func (q *QuotaTracker) rolloverLocked() {
	now := q.now()
	ly, lm, ld := q.state.LastResetTime.Local().Date()
	ny, nm, nd := now.Local().Date()
	if ly == ny && lm == nm && ld == nd {
		return
	}
	q.state = QuotaState{LastResetTime: now}
}
