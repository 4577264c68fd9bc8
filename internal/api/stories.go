package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sipico/microtales/internal/tales"
)

// RatingRequest is the body of POST /api/stories/{id}/rating.
type RatingRequest struct {
	Value int `json:"value"`
}

// HandleListStories searches visible stories.
// GET /api/stories?page=&limit=&genre=&search=&public_only=&sort_by=
func (h *Handler) HandleListStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := tales.StoryQuery{
		Genre:  q.Get("genre"),
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
	}

	var err error
	if query.Page, err = intParam(q.Get("page")); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "page must be a number")
		return
	}
	if query.Limit, err = intParam(q.Get("limit")); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a number")
		return
	}
	if v := q.Get("public_only"); v != "" {
		if query.PublicOnly, err = strconv.ParseBool(v); err != nil {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "public_only must be true or false")
			return
		}
	}

	page, err := h.svc.SearchStories(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, StoryPageResponse{
		Stories:    toStoryResponses(page.Stories),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	})
}

// intParam parses an optional integer query parameter; empty means 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// HandleFeaturedStory returns the newest public story by an account.
// GET /api/stories/featured
func (h *Handler) HandleFeaturedStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.svc.FeaturedStory(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleGetStory returns a visible story and counts the read.
// GET /api/stories/{id}
func (h *Handler) HandleGetStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.svc.GetStory(r.Context(), CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleCreateStory stores a story owned by the caller.
// POST /api/stories
func (h *Handler) HandleCreateStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.svc.CreateStory(r.Context(), CallerFromContext(r.Context()), req.input())
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStoryResponse(story))
}

// HandleUpdateStory edits a story owned by the caller.
// PUT /api/stories/{id}
func (h *Handler) HandleUpdateStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.svc.UpdateStory(r.Context(), CallerFromContext(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStoryResponse(story))
}

// HandleDeleteStory deletes a story owned by the caller.
// DELETE /api/stories/{id}
func (h *Handler) HandleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStory(r.Context(), CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRateStory records the caller's rating.
// POST /api/stories/{id}/rating
func (h *Handler) HandleRateStory(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.RateStory(r.Context(), CallerFromContext(r.Context()), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGetRating returns the caller's rating of a story, 0 if none.
// GET /api/stories/{id}/rating
func (h *Handler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	value, err := h.svc.UserRating(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"story_id": id, "value": value})
}
