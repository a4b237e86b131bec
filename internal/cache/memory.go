// Package cache は解決済み書誌レコードのキャッシュを提供する。
// キーは正規化前の入力文字列。
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// Store は書誌レコードキャッシュのインターフェース。
type Store interface {
	// Get はキーに対応するレコードを返す。期限切れ・未登録の場合はfalseを返す。
	Get(ctx context.Context, key string) (*model.Book, bool, error)
	// Set はレコードを登録する。
	Set(ctx context.Context, key string, book *model.Book) error
}

// entry はキャッシュエントリ。
type entry struct {
	key       string
	book      *model.Book
	timestamp time.Time
}

// Memory はプロセス内の上限付きTTLキャッシュ。
// 上限到達時は最も古く登録されたエントリから削除する（LRUではない）。
// 期限切れエントリは読み出し時に削除する。
type Memory struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

// NewMemory は新しいMemoryキャッシュを生成する。
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// SetClock は現在時刻の取得関数を差し替える（テスト用）。
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get はキーに対応するレコードを返す。
func (m *Memory) Get(_ context.Context, key string) (*model.Book, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := elem.Value.(*entry)
	if m.now().Sub(e.timestamp) > m.ttl {
		m.order.Remove(elem)
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.book, true, nil
}

// Set はレコードを登録する。
// 既存キーの更新では登録順を変えずに値と時刻を置き換える。
func (m *Memory) Set(_ context.Context, key string, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if elem, ok := m.entries[key]; ok {
		e := elem.Value.(*entry)
		e.book = book
		e.timestamp = now
		return nil
	}

	for m.order.Len() >= m.maxEntries {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*entry).key)
	}

	m.entries[key] = m.order.PushBack(&entry{key: key, book: book, timestamp: now})
	return nil
}

// Len は現在のエントリ数を返す（期限切れで未削除のものを含む）。
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
