package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bookshelf/internal/cache"
	"github.com/hitoshi/bookshelf/internal/config"
	"github.com/hitoshi/bookshelf/internal/lookup"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/resilience"
	"github.com/hitoshi/bookshelf/internal/security"
	"github.com/hitoshi/bookshelf/internal/source/googlebooks"
	"github.com/hitoshi/bookshelf/internal/source/ndl"
)

// components は書誌情報の解決に必要な部品をまとめたもの。
type components struct {
	resolver *lookup.Resolver
	registry *ndl.Client
	catalog  *googlebooks.Client
	breaker  *resilience.Breaker
	store    cache.Store
	closers  []func() error
}

// Close は保持している外部接続を閉じる。
func (c *components) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildComponents は設定から取得元クライアント、キャッシュ、サーキットブレーカーを組み立て、
// Resolverにワイヤリングする。
func buildComponents(ctx context.Context, cfg *config.Config, log *slog.Logger, recorder metrics.Recorder) (*components, error) {
	for _, endpoint := range []string{cfg.NDLSRUEndpoint, cfg.NDLOpenSearchEndpoint, cfg.GoogleBooksEndpoint} {
		if err := security.ValidateEndpoint(endpoint); err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
	}

	registry := ndl.NewClient(
		security.NewOutboundClient(cfg.NDLTimeout),
		log,
		retryPolicy(ndl.Name, cfg.NDLMaxRetries, cfg, log),
	)
	registry.SetEndpoints(cfg.NDLSRUEndpoint, cfg.NDLOpenSearchEndpoint)

	if cfg.GoogleBooksAPIKey == "" {
		log.Info("GOOGLE_BOOKS_API_KEY is not set; google_books lookups will fail with a configuration error")
	}
	catalog := googlebooks.NewClient(
		security.NewOutboundClient(cfg.GoogleBooksTimeout),
		log,
		retryPolicy(googlebooks.Name, cfg.GoogleBooksMaxRetries, cfg, log),
		cfg.GoogleBooksAPIKey,
		googlebooks.NewQuotaTracker(time.Now),
	)
	catalog.SetEndpoint(cfg.GoogleBooksEndpoint)

	c := &components{registry: registry, catalog: catalog}

	store, err := openCache(ctx, cfg, c)
	if err != nil {
		return nil, err
	}
	c.store = store

	c.breaker = resilience.NewBreaker(ndl.Name, cfg.BreakerThreshold, cfg.BreakerResetTimeout,
		resilience.WithStateChange(func(name string, from, to resilience.State) {
			recorder.RecordBreakerState(name, int(to))
			log.Warn("circuit breaker state changed",
				slog.String("source", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}),
	)
	recorder.RecordBreakerState(ndl.Name, int(resilience.StateClosed))

	c.resolver = lookup.NewResolver(registry, c.breaker, catalog, store, recorder, log)
	return c, nil
}

// openCache はREDIS_URLが設定されていればRedis、なければプロセス内のキャッシュを返す。
func openCache(ctx context.Context, cfg *config.Config, c *components) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL, cfg.CacheMaxEntries), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := cache.OpenRedis(pingCtx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	slog.Info("redis cache connection established")
	return cache.NewRedis(client, cfg.CacheTTL), nil
}

// retryPolicy は取得元ごとのリトライ方針を生成する。リトライ時は警告ログを出す。
func retryPolicy(name string, maxAttempts int, cfg *config.Config, log *slog.Logger) resilience.Policy {
	return resilience.Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("retrying source request",
				slog.String("source", name),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		},
	}
}
