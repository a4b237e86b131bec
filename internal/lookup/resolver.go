// Package lookup は複数の取得元を組み合わせてISBNから書誌情報を解決する。
// 国立国会図書館（サーキットブレーカー付き）、Google Booksの順に問い合わせ、
// 成功した結果をキャッシュする。
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/bookshelf/internal/cache"
	"github.com/hitoshi/bookshelf/internal/isbn"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/resilience"
	"github.com/hitoshi/bookshelf/internal/source"
)

// NotFoundError はすべての取得元で書誌情報を得られなかったことを表す。
// 取得元ごとのエラーを問い合わせ順に保持する。
type NotFoundError struct {
	ISBN   string
	Errors []*source.Error
}

// Error はerrorインターフェースを実装する。
func (e *NotFoundError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Error())
	}
	return fmt.Sprintf("書誌情報が見つかりません: %s (%s)", e.ISBN, strings.Join(parts, "; "))
}

// AllNotFound はすべての取得元が正常に応答したうえで該当なしだったかを返す。
func (e *NotFoundError) AllNotFound() bool {
	if len(e.Errors) == 0 {
		return false
	}
	for _, se := range e.Errors {
		if se.Kind != source.KindNotFound {
			return false
		}
	}
	return true
}

// IsNotFound はerrがNotFoundErrorかどうかを判定する。
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Resolver はISBNから書誌情報を解決する。
// キャッシュとサーキットブレーカーは並行する呼び出し間で共有される。
type Resolver struct {
	registry source.Searcher
	breaker  *resilience.Breaker
	catalog  source.Searcher
	cache    cache.Store
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
// registryは国立国会図書館、catalogはGoogle Booksのクライアントを想定する。
// recorderがnilの場合はメトリクスを記録しない。
func NewResolver(
	registry source.Searcher,
	breaker *resilience.Breaker,
	catalog source.Searcher,
	store cache.Store,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Resolver {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Resolver{
		registry: registry,
		breaker:  breaker,
		catalog:  catalog,
		cache:    store,
		metrics:  recorder,
		logger:   logger,
	}
}

// Resolve は入力文字列をISBNとして検証し、書誌情報を返す。
// 無効なISBNの場合は外部APIへ問い合わせずに*isbn.InvalidErrorを返す。
// すべての取得元で失敗した場合は*NotFoundErrorを返す。
func (r *Resolver) Resolve(ctx context.Context, raw string) (*model.Book, error) {
	info, err := isbn.Validate(raw)
	if err != nil {
		r.metrics.RecordResolution("invalid")
		return nil, err
	}
	normalized := isbn.Normalize(info)

	if book, ok := r.lookupCache(ctx, raw); ok {
		r.metrics.RecordResolution("cache_hit")
		return book, nil
	}

	var captured []*source.Error

	if r.breaker.Allow() {
		res := r.search(ctx, r.registry, normalized)
		if res.Outcome == source.OutcomeFound {
			r.breaker.RecordSuccess()
			return r.complete(ctx, raw, res.Book), nil
		}
		if ctx.Err() != nil {
			// 呼び出し側の中断は取得元の障害として数えない
			r.breaker.Release()
			r.logger.Info("呼び出し側の中断により国立国会図書館への問い合わせを打ち切りました",
				slog.String("source", r.registry.Name()),
				slog.String("isbn", normalized),
				slog.String("reason", ctx.Err().Error()),
			)
		} else {
			r.breaker.RecordFailure()
		}
		captured = append(captured, res.Err)
	} else {
		r.logger.Info("サーキットブレーカーが開いているため取得元をスキップします",
			slog.String("source", r.registry.Name()),
			slog.String("isbn", normalized),
		)
		r.metrics.RecordSourceResult(r.registry.Name(), "skipped")
		captured = append(captured, &source.Error{
			Source:  r.registry.Name(),
			Kind:    source.KindCircuitOpen,
			Message: "サーキットブレーカーが開いています",
		})
	}

	res := r.search(ctx, r.catalog, normalized)
	if res.Outcome == source.OutcomeFound {
		return r.complete(ctx, raw, res.Book), nil
	}
	captured = append(captured, res.Err)

	r.metrics.RecordResolution("not_found")
	nf := &NotFoundError{ISBN: normalized, Errors: captured}
	r.logger.Info("すべての取得元で書誌情報が見つかりませんでした",
		slog.String("isbn", normalized),
		slog.Bool("all_not_found", nf.AllNotFound()),
	)
	return nil, nf
}

// search は1つの取得元に問い合わせ、結果とレイテンシを記録する。
func (r *Resolver) search(ctx context.Context, s source.Searcher, normalized string) source.Result {
	start := time.Now()
	res := s.Search(ctx, normalized)
	r.metrics.RecordSourceLatency(s.Name(), time.Since(start))
	r.metrics.RecordSourceResult(s.Name(), res.Outcome.String())

	if res.Outcome != source.OutcomeFound && res.Err == nil {
		res.Err = &source.Error{Source: s.Name(), Kind: source.KindNotFound, Message: "結果がありません"}
	}
	return res
}

func (r *Resolver) lookupCache(ctx context.Context, key string) (*model.Book, bool) {
	book, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("キャッシュの読み込みに失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		r.metrics.RecordCacheMiss()
		return nil, false
	}
	if !ok {
		r.metrics.RecordCacheMiss()
		return nil, false
	}
	r.metrics.RecordCacheHit()
	return book, true
}

// complete は解決した書誌情報をキャッシュに格納して返す。
// キャッシュへの書き込み失敗は解決結果に影響しない。
func (r *Resolver) complete(ctx context.Context, key string, book *model.Book) *model.Book {
	if err := r.cache.Set(ctx, key, book); err != nil {
		r.logger.Warn("キャッシュへの書き込みに失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	r.metrics.RecordResolution("found")
	r.logger.Info("書誌情報を解決しました",
		slog.String("isbn", book.ISBN),
		slog.String("source", book.Source),
	)
	return book
}
