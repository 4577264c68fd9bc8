package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is closed") }

func TestHealthAndReady(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{})
	c := env.client(t)

	resp := c.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.body))

	resp = c.do(t, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, string(resp.body))
}

func TestReadyUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		db       Pinger
		wantBody string
	}{
		{"ping fails", failingPinger{}, `{"status":"error","database":"unavailable"}`},
		{"no database", nil, `{"status":"error","database":"not configured"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(nil, tt.db, Options{Logger: slog.New(slog.DiscardHandler)})
			w := httptest.NewRecorder()
			h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{})

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "trace-42", resp.Header.Get("X-Request-ID"))
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{MaxBodyBytes: 256})
	c := env.client(t)

	body := storyBody("Too long")
	body["content"] = strings.Repeat("a", 1024)
	body["email"] = "guest@example.com"
	resp := c.do(t, http.MethodPost, "/api/guest/stories", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.status)
	assert.Equal(t, ErrCodeRequestTooLarge, resp.apiError(t).Error)
}

func TestCORS(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{CORSAllowedOrigins: []string{"https://tales.example"}})

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed origin", "https://tales.example", "https://tales.example"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/stories", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestNoCORSWithoutOrigins(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{})

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTamperedSessionCookieIsAnonymous(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t, Options{})

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "forged"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
