package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/middleware"
	"github.com/sipico/microtales/internal/tales"
)

// Standard error codes for API responses.
const (
	// ErrCodeInvalidRequest indicates a malformed request body or query.
	ErrCodeInvalidRequest = "invalid_request"

	// ErrCodeValidation indicates a well-formed request with invalid field values.
	ErrCodeValidation = "validation_error"

	// ErrCodeRequestTooLarge indicates the body exceeded the configured limit.
	ErrCodeRequestTooLarge = "request_too_large"

	// ErrCodeUnauthenticated indicates a session is required.
	ErrCodeUnauthenticated = "unauthenticated"

	// ErrCodeInvalidCredentials indicates a failed login.
	ErrCodeInvalidCredentials = "invalid_credentials"

	// ErrCodePermissionDenied indicates the caller is neither owner nor admin.
	ErrCodePermissionDenied = "permission_denied"

	// ErrCodeAdminRequired indicates an admin session is required.
	ErrCodeAdminRequired = "admin_required"

	// ErrCodeAccountExists indicates the email is already registered.
	ErrCodeAccountExists = "account_exists"

	// ErrCodeNotFound indicates a resource was not found. Invalid, expired and
	// mismatched tokens or secrets are reported with this code too.
	ErrCodeNotFound = "not_found"

	// ErrCodeInternalError indicates a server error.
	ErrCodeInternalError = "internal_error"
)

// notFoundMessage is shared by every token and secret failure so that
// responses don't reveal which check failed.
const notFoundMessage = "Story not found, or the link or code is no longer valid"

// APIError is the standard error response format for JSON APIs.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// WriteError writes a JSON error response with the given status code, error code, and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Error: code, Message: message})
}

// WriteErrorWithHint writes a JSON error response with an optional hint for resolving the error.
func WriteErrorWithHint(w http.ResponseWriter, status int, code, message, hint string) {
	writeJSON(w, status, APIError{Error: code, Message: message, Hint: hint})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Response write errors are unrecoverable
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into dst and writes the error response
// itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Request body is required")
	default:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON")
	}
	return false
}

// writeServiceError maps a tales error to an HTTP response.
// purpose is the token purpose involved in the call, or "" for none.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, purpose string, err error) {
	var verr *tales.ValidationError

	if purpose != "" && errors.Is(err, tales.ErrTokenSpent) {
		metrics.RecordTokenEvent(purpose, metrics.TokenRejected)
	}

	switch {
	case errors.Is(err, tales.ErrTokenInvalid):
		if purpose != "" {
			metrics.RecordTokenEvent(purpose, metrics.TokenInvalid)
		}
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, notFoundMessage)
	case errors.Is(err, tales.ErrTokenExpired):
		if purpose != "" {
			metrics.RecordTokenEvent(purpose, metrics.TokenExpired)
		}
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, notFoundMessage)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, APIError{
			Error:   ErrCodeValidation,
			Message: verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, tales.ErrStoryNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Story not found")
	case errors.Is(err, tales.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Author not found")
	case errors.Is(err, tales.ErrUnauthenticated):
		metrics.RecordAuthFailure("unauthenticated")
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthenticated, "You must be logged in")
	case errors.Is(err, tales.ErrInvalidCredentials):
		metrics.RecordAuthFailure("invalid_credentials")
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, tales.ErrPermissionDenied):
		metrics.RecordAuthFailure("permission_denied")
		WriteError(w, http.StatusForbidden, ErrCodePermissionDenied, "You can only change your own stories")
	case errors.Is(err, tales.ErrAccountExists):
		WriteErrorWithHint(w, http.StatusConflict, ErrCodeAccountExists,
			"An account with this email already exists", "Log in instead")
	default:
		middleware.Logger(r.Context()).Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
	}
}
