// Package api exposes the MicroTales operations as a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/sipico/microtales/internal/tales"
)

// sessionMaxAge is how long a login lasts.
const sessionMaxAge = 7 * 24 * time.Hour

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Handler.
type Options struct {
	SessionSecret      []byte
	SecureCookies      bool
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	LogLevel           *slog.LevelVar
	Logger             *slog.Logger
}

// Handler serves the MicroTales API.
type Handler struct {
	svc          *tales.Service
	db           Pinger
	sessions     sessions.Store
	logger       *slog.Logger
	logLevel     *slog.LevelVar
	corsOrigins  []string
	maxBodyBytes int64
}

// NewHandler creates a handler for svc. db is used by the readiness probe.
func NewHandler(svc *tales.Service, db Pinger, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logLevel := opts.LogLevel
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 10
	}

	store := sessions.NewCookieStore(opts.SessionSecret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &Handler{
		svc:          svc,
		db:           db,
		sessions:     store,
		logger:       logger,
		logLevel:     logLevel,
		corsOrigins:  opts.CORSAllowedOrigins,
		maxBodyBytes: maxBody,
	}
}
