package api

import (
	"time"

	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
)

// StoryResponse is the public view of a story. Guest emails and secret codes
// are never included.
type StoryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Genre       string    `json:"genre"`
	Rating      float64   `json:"rating"`
	Views       int64     `json:"views"`
	ReadingTime int       `json:"reading_time"`
	IsPublic    bool      `json:"is_public"`
	IsGuest     bool      `json:"is_guest"`
	AuthorID    string    `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	EditedAt    time.Time `json:"edited_at"`
}

func toStoryResponse(s *storage.Story) StoryResponse {
	return StoryResponse{
		ID:          s.ID,
		Title:       s.Title,
		Content:     s.Content,
		Genre:       s.Genre,
		Rating:      s.Rating,
		Views:       s.Views,
		ReadingTime: s.ReadingTime,
		IsPublic:    s.IsPublic,
		IsGuest:     s.IsGuest,
		AuthorID:    s.AuthorID,
		AuthorName:  s.AuthorName,
		CreatedAt:   s.CreatedAt,
		EditedAt:    s.EditedAt,
	}
}

func toStoryResponses(stories []*storage.Story) []StoryResponse {
	out := make([]StoryResponse, len(stories))
	for i, s := range stories {
		out[i] = toStoryResponse(s)
	}
	return out
}

// StoryWithSecretResponse carries a story together with the secret code the
// guest must keep. Only returned to the guest who submitted or edited it.
type StoryWithSecretResponse struct {
	Story  StoryResponse `json:"story"`
	Secret string        `json:"secret"`
}

// StoryPageResponse is one page of search results.
type StoryPageResponse struct {
	Stories    []StoryResponse `json:"stories"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

// AccountResponse is the signed-in account.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(a *storage.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// SignUpResponse is returned by POST /api/auth/signup. ClaimedStory is set
// when a claim token was supplied and the transfer succeeded; ClaimError is
// set when it was supplied and failed.
type SignUpResponse struct {
	Account      AccountResponse `json:"account"`
	ClaimedStory *StoryResponse  `json:"claimed_story,omitempty"`
	ClaimError   string          `json:"claim_error,omitempty"`
}

// StoryRequest is the body of every story create or edit call.
type StoryRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Genre    string `json:"genre"`
	IsPublic *bool  `json:"is_public"`
}

// input converts the request, defaulting is_public to true.
func (req StoryRequest) input() tales.StoryInput {
	public := true
	if req.IsPublic != nil {
		public = *req.IsPublic
	}
	return tales.StoryInput{Title: req.Title, Content: req.Content, Genre: req.Genre, IsPublic: public}
}
