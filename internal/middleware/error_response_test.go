package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bookshelf/internal/model"
)

func TestNewErrorResponseBody(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   *model.APIError
		wantCode string
		wantCat  string
	}{
		{"invalid isbn", model.NewInvalidISBNError("桁数が不正です"), model.ErrCodeInvalidISBN, "validation"},
		{"not found", model.NewBookNotFoundError("9784101010014"), model.ErrCodeBookNotFound, "book"},
		{"upstream", model.NewUpstreamUnavailableError("ndl"), model.ErrCodeUpstreamUnavailable, "system"},
		{"nil falls back to internal", nil, model.ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := NewErrorResponseBody(tt.apiErr)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Category != tt.wantCat {
				t.Errorf("category = %q, want %q", body.Category, tt.wantCat)
			}
			if body.Message == "" || body.Action == "" {
				t.Errorf("message and action must be set: %+v", body)
			}
		})
	}
}

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		status int
		apiErr *model.APIError
	}{
		{http.StatusBadRequest, model.NewInvalidRequestError("isbnsは必須です")},
		{http.StatusNotFound, model.NewBookNotFoundError("4101010013")},
		{http.StatusBadGateway, model.NewUpstreamUnavailableError("google_books")},
		{http.StatusServiceUnavailable, model.NewPersistenceUnavailableError()},
	}

	for _, tt := range tests {
		t.Run(tt.apiErr.Code, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.status, tt.apiErr)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var raw map[string]string
			if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			for _, field := range []string{"code", "message", "category", "action"} {
				if raw[field] == "" {
					t.Errorf("field %q is missing or empty", field)
				}
			}
			if raw["code"] != tt.apiErr.Code {
				t.Errorf("code = %q, want %q", raw["code"], tt.apiErr.Code)
			}
		})
	}
}

func TestWriteInternalServerError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if *NewErrorResponseBody(model.NewInternalError()) != body {
		t.Errorf("body = %+v, want the generic internal error", body)
	}
}
