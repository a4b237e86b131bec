package lookup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// defaultBatchConcurrency はconcurrencyが0以下のときの並列数。
const defaultBatchConcurrency = 4

// BatchItem は一括解決における1件分の結果。
// Bookとerrのどちらか一方が設定される。
type BatchItem struct {
	Input string
	Book  *model.Book
	Err   error
}

// ResolveBatch は複数のISBNを並列に解決する。
// semaphoreパターンで最大並列数を制御し、結果は入力順に返す。
// 1件の失敗が他の解決を中断することはない。
func (r *Resolver) ResolveBatch(ctx context.Context, raws []string, concurrency int) []BatchItem {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	start := time.Now()
	items := make([]BatchItem, len(raws))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, raw := range raws {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, raw string) {
			defer wg.Done()
			defer func() { <-sem }()

			book, err := r.Resolve(ctx, raw)
			items[i] = BatchItem{Input: raw, Book: book, Err: err}
		}(i, raw)
	}

	wg.Wait()

	r.logger.Info("一括解決が完了しました",
		slog.Int("count", len(raws)),
		slog.Int("concurrency", concurrency),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return items
}
