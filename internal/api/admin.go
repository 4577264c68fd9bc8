package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/middleware"
)

// SetLogLevelRequest is the request body for POST /api/admin/loglevel
type SetLogLevelRequest struct {
	Level string `json:"level"`
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

// HandleSetLogLevel changes runtime log level
// POST /api/admin/loglevel
// Body: {"level": "debug|info|warn|error"}
func (h *Handler) HandleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLogLevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	level, ok := ParseLevel(req.Level)
	if !ok {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"Invalid level (must be: debug, info, warn, error)")
		return
	}

	h.logLevel.Set(level)
	middleware.Logger(r.Context()).Info("log level changed",
		"new_level", level.String(),
		"account_id", CallerFromContext(r.Context()).AccountID)

	writeJSON(w, http.StatusOK, map[string]string{"level": strings.ToLower(req.Level)})
}

// HandleSweepTokens deletes expired edit and claim tokens.
// POST /api/admin/tokens/sweep
func (h *Handler) HandleSweepTokens(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SweepExpiredTokens(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	metrics.RecordTokensSwept(n)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
