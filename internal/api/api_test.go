package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testRegistry = prometheus.NewRegistry()

func TestMain(m *testing.M) {
	if err := metrics.Init(testRegistry, "test"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type apiEnv struct {
	srv      *httptest.Server
	svc      *tales.Service
	store    *storage.SQLiteStorage
	clock    *testClock
	logLevel *slog.LevelVar
}

func newAPIEnv(t *testing.T, opts Options) *apiEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc := tales.NewService(store, logger)
	svc.SetClock(clock.Now)
	svc.SetPasswordCost(bcrypt.MinCost)

	if opts.SessionSecret == nil {
		opts.SessionSecret = []byte("0123456789abcdef0123456789abcdef")
	}
	if opts.LogLevel == nil {
		opts.LogLevel = new(slog.LevelVar)
	}
	opts.Logger = logger

	h := NewHandler(svc, store, opts)
	srv := httptest.NewServer(h.NewRouter())
	t.Cleanup(srv.Close)

	return &apiEnv{srv: srv, svc: svc, store: store, clock: clock, logLevel: opts.LogLevel}
}

// client returns an HTTP client with its own cookie jar, i.e. its own session.
func (e *apiEnv) client(t *testing.T) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{base: e.srv.URL, http: &http.Client{Jar: jar}}
}

// admin creates an admin account and returns a client logged in as it.
func (e *apiEnv) admin(t *testing.T) *apiClient {
	t.Helper()
	_, err := e.svc.CreateAccount(context.Background(), tales.SignUpInput{
		Name: "Root", Email: "root@example.com", Password: "correct horse",
	}, storage.RoleAdmin)
	require.NoError(t, err)

	c := e.client(t)
	resp := c.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "root@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	return c
}

// author signs up a new author and returns a client holding the session.
func (e *apiEnv) author(t *testing.T, email string) (*apiClient, AccountResponse) {
	t.Helper()
	c := e.client(t)
	resp := c.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": email, "password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var out SignUpResponse
	resp.decode(t, &out)
	return c, out.Account
}

type apiClient struct {
	base string
	http *http.Client
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r apiResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r apiResponse) apiError(t *testing.T) APIError {
	t.Helper()
	var e APIError
	r.decode(t, &e)
	return e
}

func (c *apiClient) do(t *testing.T, method, path string, body any) apiResponse {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return apiResponse{status: resp.StatusCode, header: resp.Header, body: data}
}

func storyBody(title string) map[string]any {
	return map[string]any{
		"title":   title,
		"content": "The keeper lit the lamp one last time before the storm.",
		"genre":   "mystery",
	}
}
