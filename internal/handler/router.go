package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// 書誌情報
	Resolver         BookResolver
	Searcher         TitleSearcher
	Books            repository.BookRepository
	BatchConcurrency int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// 外部APIを呼び出す書誌情報検索には検索専用のレート制限を追加する。
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	isbnHandler := NewISBNHandler()
	bookHandler := NewBookHandler(deps.Resolver, deps.Searcher, deps.Books, deps.BatchConcurrency, deps.Logger)

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ISBN解析（外部APIを呼ばない）
		r.Route("/api/isbn", func(r chi.Router) {
			r.Post("/validate", isbnHandler.ValidateBatch)
			r.Get("/barcode/{code}", isbnHandler.Barcode)
			r.Get("/{isbn}", isbnHandler.Analyze)
		})

		// 書誌情報
		r.Route("/api/books", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.LookupMiddleware())

				r.Get("/lookup/{isbn}", bookHandler.Lookup)
				r.Post("/lookup", bookHandler.LookupBatch)
				r.Post("/", bookHandler.Register)
				r.Get("/search", bookHandler.Search)
			})
		})
	})

	return r
}

// Health はヘルスチェックに応答する。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
