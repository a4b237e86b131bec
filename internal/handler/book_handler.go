package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/lookup"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// BookResolver は書誌情報の解決インターフェース。
type BookResolver interface {
	// Resolve はISBNから書誌情報を解決する。
	Resolve(ctx context.Context, raw string) (*model.Book, error)
	// ResolveBatch は複数のISBNを並列に解決する。
	ResolveBatch(ctx context.Context, raws []string, concurrency int) []lookup.BatchItem
}

// TitleSearcher はタイトルによる書誌検索のインターフェース。
type TitleSearcher interface {
	SearchByTitle(ctx context.Context, title string, limit int) ([]model.Book, error)
}

// BookHandler は書誌情報の検索・登録を行うHTTPハンドラー。
type BookHandler struct {
	resolver         BookResolver
	searcher         TitleSearcher
	books            repository.BookRepository
	batchConcurrency int
	logger           *slog.Logger
}

// NewBookHandler はBookHandlerを生成する。
// booksがnilの場合、登録APIは503を返す。
func NewBookHandler(
	resolver BookResolver,
	searcher TitleSearcher,
	books repository.BookRepository,
	batchConcurrency int,
	logger *slog.Logger,
) *BookHandler {
	return &BookHandler{
		resolver:         resolver,
		searcher:         searcher,
		books:            books,
		batchConcurrency: batchConcurrency,
		logger:           logger,
	}
}

// --- リクエスト・レスポンス型 ---

// registerRequest は書誌登録リクエストのボディ。
type registerRequest struct {
	ISBN string `json:"isbn"`
}

// batchItemResponse は一括解決の1件分のレスポンス。
type batchItemResponse struct {
	Input string                        `json:"input"`
	Book  *model.Book                   `json:"book,omitempty"`
	Error *middleware.ErrorResponseBody `json:"error,omitempty"`
}

// batchResponse は一括解決のレスポンス。
type batchResponse struct {
	Items    []batchItemResponse `json:"items"`
	Resolved int                 `json:"resolved"`
	Failed   int                 `json:"failed"`
}

// searchResponse はタイトル検索のレスポンス。
type searchResponse struct {
	Books []model.Book `json:"books"`
	Count int          `json:"count"`
}

// Lookup はISBNから書誌情報を解決して返す。
// GET /api/books/lookup/{isbn}
func (h *BookHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	book, err := h.resolver.Resolve(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// LookupBatch は複数のISBNを一括で解決する。
// 個々の失敗はレスポンスの各要素に含め、全体は200で返す。
// POST /api/books/lookup
func (h *BookHandler) LookupBatch(w http.ResponseWriter, r *http.Request) {
	var req isbnListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ISBNs) == 0 || len(req.ISBNs) > maxBatchSize {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("ISBNは1件以上100件以内で指定してください"))
		return
	}

	items := h.resolver.ResolveBatch(r.Context(), req.ISBNs, h.batchConcurrency)

	resp := batchResponse{Items: make([]batchItemResponse, 0, len(items))}
	for _, item := range items {
		out := batchItemResponse{Input: item.Input, Book: item.Book}
		if item.Err != nil {
			_, apiErr := toAPIError(item.Err)
			out.Error = middleware.NewErrorResponseBody(apiErr)
			resp.Failed++
		} else {
			resp.Resolved++
		}
		resp.Items = append(resp.Items, out)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Register はISBNから書誌情報を解決し、保存する。
// POST /api/books
func (h *BookHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.books == nil {
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewPersistenceUnavailableError())
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ISBN) == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("isbnは必須です"))
		return
	}

	book, err := h.resolver.Resolve(r.Context(), req.ISBN)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	stored, err := h.books.Upsert(r.Context(), book)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.logger.Info("書誌情報を登録しました",
		slog.String("book_id", stored.ID),
		slog.String("isbn", stored.ISBN),
		slog.String("source", stored.Source),
	)
	writeJSON(w, http.StatusCreated, stored)
}

// Search はタイトルで書誌情報を検索する。
// GET /api/books/search?title=xxx&limit=20
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("titleは必須です"))
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("limitは1以上の整数で指定してください"))
			return
		}
		limit = n
	}

	books, err := h.searcher.SearchByTitle(r.Context(), title, limit)
	if err != nil {
		h.logger.Warn("タイトル検索に失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		handleError(w, h.logger, err)
		return
	}
	if books == nil {
		books = []model.Book{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Books: books, Count: len(books)})
}
