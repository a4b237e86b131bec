package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/isbn"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
)

// maxBatchSize は一括処理で受け付けるISBNの最大件数。
const maxBatchSize = 100

// ISBNHandler はISBNの解析・検証を行うHTTPハンドラー。外部APIは呼び出さない。
type ISBNHandler struct{}

// NewISBNHandler はISBNHandlerを生成する。
func NewISBNHandler() *ISBNHandler {
	return &ISBNHandler{}
}

// isbnListRequest はISBNの一括処理リクエストのボディ。
type isbnListRequest struct {
	ISBNs []string `json:"isbns"`
}

// analyzeResponse はISBN解析のレスポンス。
type analyzeResponse struct {
	*isbn.Info
	RegionMatch *bool `json:"region_match,omitempty"`
}

// Analyze はISBNを解析し、構造要素と検証結果を返す。
// 無効なISBNでも200で解析結果を返す。
// GET /api/isbn/{isbn}?region=Japan
func (h *ISBNHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "isbn")
	resp := analyzeResponse{Info: isbn.Analyze(raw)}

	if region := r.URL.Query().Get("region"); region != "" {
		match := isbn.IsRegionMatch(raw, region)
		resp.RegionMatch = &match
	}

	writeJSON(w, http.StatusOK, resp)
}

// Barcode はEAN-13バーコードの読み取り値からISBNを取り出す。
// 書籍のバーコードでない場合は400を返す。
// GET /api/isbn/barcode/{code}
func (h *ISBNHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	info := isbn.ExtractFromBarcode(chi.URLParam(r, "code"))
	if info == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidISBNError("書籍のバーコード（978または979で始まる13桁）ではありません"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ValidateBatch は複数のISBNを検証し、有効・無効に振り分けて返す。
// POST /api/isbn/validate
func (h *ISBNHandler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req isbnListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ISBNs) > maxBatchSize {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("ISBNは100件以内で指定してください"))
		return
	}

	writeJSON(w, http.StatusOK, isbn.ValidateBatch(req.ISBNs))
}
