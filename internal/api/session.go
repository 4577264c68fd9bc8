package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/middleware"
	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
)

const (
	sessionName      = "microtales_session"
	sessionAccountID = "account_id"
)

type ctxKey int

const callerKey ctxKey = iota

// CallerFromContext returns the verified caller, or the anonymous caller.
func CallerFromContext(ctx context.Context) tales.Caller {
	c, _ := ctx.Value(callerKey).(tales.Caller)
	return c
}

// WithCaller adds a caller to the context.
func WithCaller(ctx context.Context, c tales.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// SessionMiddleware resolves the session cookie to a caller. The account is
// reloaded on every request so role changes and deletions take effect
// immediately; an unreadable cookie or a deleted account means anonymous.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Get(r, sessionName)
		if err != nil {
			middleware.Logger(r.Context()).Debug("ignoring unreadable session cookie", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		id, _ := sess.Values[sessionAccountID].(string)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		account, err := h.svc.GetAccount(r.Context(), id)
		if errors.Is(err, tales.ErrAccountNotFound) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			h.writeServiceError(w, r, "", err)
			return
		}

		ctx := WithCaller(r.Context(), tales.Caller{AccountID: account.ID, Role: account.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects anonymous callers with 401.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).Authenticated() {
			metrics.RecordAuthFailure("unauthenticated")
			WriteError(w, http.StatusUnauthorized, ErrCodeUnauthenticated, "You must be logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin is middleware that requires an admin session.
// Returns 403 Forbidden for any other caller.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).IsAdmin() {
			metrics.RecordAuthFailure("admin_required")
			WriteErrorWithHint(w, http.StatusForbidden, ErrCodeAdminRequired,
				"This endpoint requires an admin account",
				"Log in with an account that has the admin role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// startSession stores the account in the session cookie.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, a *storage.Account) error {
	// A stale or tampered cookie still yields a fresh session to write into.
	sess, _ := h.sessions.Get(r, sessionName) //nolint:errcheck
	sess.Values[sessionAccountID] = a.ID
	return sess.Save(r, w)
}

// endSession expires the session cookie.
func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := h.sessions.Get(r, sessionName) //nolint:errcheck
	delete(sess.Values, sessionAccountID)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
