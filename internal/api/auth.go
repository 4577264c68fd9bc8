package api

import (
	"errors"
	"net/http"

	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/middleware"
	"github.com/sipico/microtales/internal/tales"
)

// SignUpRequest is the body of POST /api/auth/signup.
type SignUpRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ClaimToken string `json:"claim_token,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers an author, signs them in, and claims a pending story
// if a claim token is supplied. A failed claim does not undo the sign-up.
// POST /api/auth/signup
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.svc.SignUp(r.Context(), tales.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	if err := h.startSession(w, r, account); err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}

	resp := SignUpResponse{Account: toAccountResponse(account)}
	if req.ClaimToken != "" {
		caller := tales.Caller{AccountID: account.ID, Role: account.Role}
		story, err := h.svc.TransferOwnership(r.Context(), caller, req.ClaimToken)
		switch {
		case err == nil:
			metrics.RecordTokenEvent(tales.PurposeClaim, metrics.TokenConsumed)
			s := toStoryResponse(story)
			resp.ClaimedStory = &s
		case errors.Is(err, tales.ErrTokenSpent):
			metrics.RecordTokenEvent(tales.PurposeClaim, metrics.TokenRejected)
			resp.ClaimError = notFoundMessage
		case errors.Is(err, tales.ErrTokenInvalid), errors.Is(err, tales.ErrTokenExpired),
			errors.Is(err, tales.ErrStoryNotFound):
			metrics.RecordTokenEvent(tales.PurposeClaim, metrics.TokenInvalid)
			resp.ClaimError = notFoundMessage
		default:
			middleware.Logger(r.Context()).Error("claim after sign-up failed", "account_id", account.ID, "error", err)
			resp.ClaimError = "Story could not be claimed"
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin verifies credentials and starts a session.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	if err := h.startSession(w, r, account); err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}

	middleware.Logger(r.Context()).Info("account logged in", "account_id", account.ID)
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// HandleLogout ends the session. Logging out without a session succeeds.
// POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.endSession(w, r); err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in account.
// GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())
	account, err := h.svc.GetAccount(r.Context(), caller.AccountID)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}
