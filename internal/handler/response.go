// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/isbn"
	"github.com/hitoshi/bookshelf/internal/lookup"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/source"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
// 失敗した場合は400レスポンスを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return false
	}
	return true
}

// toAPIError はエラーをHTTPステータスコードとAPIErrorに変換する。
// ISBNの検証失敗は400、全取得元での未検出は404、外部APIの失敗は502、それ以外は500。
func toAPIError(err error) (int, *model.APIError) {
	var invalid *isbn.InvalidError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, model.NewInvalidISBNError(invalid.Message)
	}

	var notFound *lookup.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, model.NewBookNotFoundError(notFound.ISBN)
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return mapAPIErrorToHTTPStatus(apiErr), apiErr
	}

	var srcErr *source.Error
	if errors.As(err, &srcErr) {
		return http.StatusBadGateway, model.NewUpstreamUnavailableError(srcErr.Source)
	}

	return http.StatusInternalServerError, model.NewInternalError()
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidISBN, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeBookNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case model.ErrCodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError はエラーを統一フォーマットのレスポンスとして書き込む。
// 500の場合のみ詳細をログに記録する。
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, apiErr := toAPIError(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal server error", slog.String("error", err.Error()))
	}
	middleware.WriteErrorResponse(w, status, apiErr)
}
