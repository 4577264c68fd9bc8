package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		limit         int64
		bodySize      int
		hideLength    bool
		shouldSucceed bool
	}{
		{name: "body under limit", limit: 1024, bodySize: 512, shouldSucceed: true},
		{name: "body exactly at limit", limit: 1024, bodySize: 1024, shouldSucceed: true},
		{name: "declared length over limit", limit: 1024, bodySize: 2048, shouldSucceed: false},
		{name: "undeclared length over limit", limit: 1024, bodySize: 2048, hideLength: true, shouldSucceed: false},
		{name: "empty body", limit: 1024, bodySize: 0, shouldSucceed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := MaxBodySize(tt.limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.ReadAll(r.Body); err != nil {
					http.Error(w, "too large", http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("POST", "/api/guest/stories", bytes.NewReader(make([]byte, tt.bodySize)))
			if tt.hideLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tt.shouldSucceed && rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if !tt.shouldSucceed && rec.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("status = %d, want 413", rec.Code)
			}
		})
	}
}

func TestMaxBodySize_EarlyRejectIsJSON(t *testing.T) {
	t.Parallel()

	called := false
	handler := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("POST", "/", bytes.NewReader(make([]byte, 16)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler should not run when Content-Length exceeds the limit")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
