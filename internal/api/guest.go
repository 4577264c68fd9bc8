package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/tales"
)

// GuestStoryRequest is the body of POST /api/guest/stories.
type GuestStoryRequest struct {
	StoryRequest
	Email string `json:"email"`
}

// ClaimBySecretRequest is the body of POST /api/guest/claim.
type ClaimBySecretRequest struct {
	Secret string `json:"secret"`
	Email  string `json:"email"`
}

// ClaimTokenRequest is the body of POST /api/pending/claim.
type ClaimTokenRequest struct {
	Token string `json:"token"`
}

// HandleSubmitGuestStory stores a guest story and returns its secret code.
// POST /api/guest/stories
func (h *Handler) HandleSubmitGuestStory(w http.ResponseWriter, r *http.Request) {
	var req GuestStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.SubmitGuestStory(r.Context(), req.input(), req.Email)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, StoryWithSecretResponse{
		Story:  toStoryResponse(sub.Story),
		Secret: sub.Secret,
	})
}

// HandleClaimBySecret exchanges a secret code and email for an edit token.
// Every mismatch is reported as 404.
// POST /api/guest/claim
func (h *Handler) HandleClaimBySecret(w http.ResponseWriter, r *http.Request) {
	var req ClaimBySecretRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issued, err := h.svc.ClaimBySecret(r.Context(), req.Secret, req.Email)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	metrics.RecordTokenEvent(tales.PurposeEdit, metrics.TokenIssued)
	writeJSON(w, http.StatusCreated, issued)
}

// HandleResolveToken returns the story an edit token points at without
// spending the token.
// GET /api/guest/edit/{token}
func (h *Handler) HandleResolveToken(w http.ResponseWriter, r *http.Request) {
	story, err := h.svc.ResolveByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, r, tales.PurposeEdit, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleEditByToken applies an edit and returns the rotated secret code.
// The token is spent even when the edit is rejected.
// PUT /api/guest/edit/{token}
func (h *Handler) HandleEditByToken(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.EditByToken(r.Context(), chi.URLParam(r, "token"), req.input())
	if err != nil {
		h.writeServiceError(w, r, tales.PurposeEdit, err)
		return
	}
	metrics.RecordTokenEvent(tales.PurposeEdit, metrics.TokenConsumed)
	writeJSON(w, http.StatusOK, StoryWithSecretResponse{
		Story:  toStoryResponse(res.Story),
		Secret: res.Secret,
	})
}

// HandleDeleteByToken deletes the token's story.
// DELETE /api/guest/edit/{token}
func (h *Handler) HandleDeleteByToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteByToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeServiceError(w, r, tales.PurposeEdit, err)
		return
	}
	metrics.RecordTokenEvent(tales.PurposeEdit, metrics.TokenConsumed)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmitPendingStory stores an invisible story for a visitor who is
// about to register and returns the claim token.
// POST /api/pending/stories
func (h *Handler) HandleSubmitPendingStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issued, err := h.svc.SubmitPendingStory(r.Context(), req.input())
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	metrics.RecordTokenEvent(tales.PurposeClaim, metrics.TokenIssued)
	writeJSON(w, http.StatusCreated, issued)
}

// HandleClaimPending transfers a pending story to the signed-in caller.
// POST /api/pending/claim
func (h *Handler) HandleClaimPending(w http.ResponseWriter, r *http.Request) {
	var req ClaimTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.svc.TransferOwnership(r.Context(), CallerFromContext(r.Context()), req.Token)
	if err != nil {
		h.writeServiceError(w, r, tales.PurposeClaim, err)
		return
	}
	metrics.RecordTokenEvent(tales.PurposeClaim, metrics.TokenConsumed)
	writeJSON(w, http.StatusOK, toStoryResponse(story))
}
