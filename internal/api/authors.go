package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HandleGetAuthor returns an author's public profile.
// GET /api/authors/{id}
func (h *Handler) HandleGetAuthor(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleAuthorStories lists an author's visible stories.
// GET /api/authors/{id}/stories
func (h *Handler) HandleAuthorStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.svc.StoriesByAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoryResponses(stories))
}

// HandleAuthorRanking returns an author's mean story rating.
// GET /api/authors/{id}/ranking
func (h *Handler) HandleAuthorRanking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.svc.RankAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
