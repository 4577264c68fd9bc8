package tales

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Search defaults and bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CreateStory stores a visible story owned by the caller.
func (s *Service) CreateStory(ctx context.Context, caller Caller, in StoryInput) (*storage.Story, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	story := &storage.Story{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Content:     in.Content,
		Genre:       in.Genre,
		ReadingTime: CalculateReadingTime(in.Content),
		IsPublic:    in.IsPublic,
		IsVisible:   true,
		AuthorID:    caller.AccountID,
		CreatedAt:   now,
		EditedAt:    now,
	}
	if err := s.store.CreateStory(ctx, story); err != nil {
		return nil, err
	}

	s.logger.Info("story created", "story_id", story.ID, "account_id", caller.AccountID)
	return story, nil
}

// UpdateStory edits a story owned by the caller. Admins may edit any story.
func (s *Service) UpdateStory(ctx context.Context, caller Caller, id string, in StoryInput) (*storage.Story, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *storage.Story
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		story, err := q.GetStory(ctx, id)
		if err != nil {
			return storyErr(err)
		}
		if err := authorize(caller, story); err != nil {
			return err
		}
		updated, err = q.UpdateStory(ctx, id, &storage.StoryUpdate{
			Title:       in.Title,
			Content:     in.Content,
			Genre:       in.Genre,
			IsPublic:    in.IsPublic,
			ReadingTime: CalculateReadingTime(in.Content),
			EditedAt:    s.now(),
		})
		return storyErr(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteStory deletes a story owned by the caller. Admins may delete any story.
func (s *Service) DeleteStory(ctx context.Context, caller Caller, id string) error {
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}
	if err := validateID("id", id); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(q storage.Querier) error {
		story, err := q.GetStory(ctx, id)
		if err != nil {
			return storyErr(err)
		}
		if err := authorize(caller, story); err != nil {
			return err
		}
		return storyErr(q.DeleteStory(ctx, id))
	})
	if err != nil {
		return err
	}

	s.logger.Info("story deleted", "story_id", id, "account_id", caller.AccountID)
	return nil
}

func authorize(caller Caller, story *storage.Story) error {
	if caller.IsAdmin() {
		return nil
	}
	if story.AuthorID != "" && story.AuthorID == caller.AccountID {
		return nil
	}
	return ErrPermissionDenied
}

// GetStory returns a visible story and records the read. reader may be anonymous.
func (s *Service) GetStory(ctx context.Context, reader Caller, id string) (*storage.Story, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	var story *storage.Story
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		st, err := q.GetStory(ctx, id)
		if err != nil {
			return storyErr(err)
		}
		if !st.IsVisible {
			return ErrStoryNotFound
		}
		if err := q.IncrementViews(ctx, id); err != nil {
			return err
		}
		if err := q.RecordRead(ctx, id, reader.AccountID, s.now()); err != nil {
			return err
		}
		st.Views++
		story = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// FeaturedStory returns the newest public story written by an account.
func (s *Service) FeaturedStory(ctx context.Context) (*storage.Story, error) {
	story, err := s.store.GetFeaturedStory(ctx)
	if err != nil {
		return nil, storyErr(err)
	}
	return story, nil
}

// StoriesByAuthor lists the visible stories of an account.
func (s *Service) StoriesByAuthor(ctx context.Context, authorID string) ([]*storage.Story, error) {
	if err := validateID("author_id", authorID); err != nil {
		return nil, err
	}
	return s.store.ListStoriesByAuthor(ctx, authorID)
}

// StoryQuery selects a page of visible stories.
type StoryQuery struct {
	Page       int
	Limit      int
	Genre      string
	Search     string
	PublicOnly bool
	SortBy     string
}

// StoryPage is one page of search results.
type StoryPage struct {
	Stories    []*storage.Story
	Page       int
	TotalPages int
	Total      int
}

// SearchStories returns a page of visible stories matching qry.
// Page defaults to 1 and Limit to DefaultPageSize.
func (s *Service) SearchStories(ctx context.Context, qry StoryQuery) (*StoryPage, error) {
	if qry.Page == 0 {
		qry.Page = 1
	}
	if qry.Limit == 0 {
		qry.Limit = DefaultPageSize
	}
	if qry.Page < 1 {
		return nil, invalid("page", "page must be at least 1")
	}
	if qry.Limit < 1 || qry.Limit > MaxPageSize {
		return nil, invalid("limit", "limit must be between 1 and 100")
	}

	genre := strings.ToLower(strings.TrimSpace(qry.Genre))
	if genre != "" && !ValidGenre(genre) {
		return nil, invalid("genre", "invalid genre provided")
	}

	sortBy := qry.SortBy
	switch sortBy {
	case "", storage.SortNewest:
		sortBy = storage.SortNewest
	case storage.SortHighestRated, storage.SortMostRead:
	default:
		return nil, invalid("sort_by", "sort must be newest, highestRated or mostRead")
	}

	filter := &storage.StoryFilter{
		Genre:      genre,
		Search:     strings.TrimSpace(qry.Search),
		PublicOnly: qry.PublicOnly,
		SortBy:     sortBy,
		Limit:      qry.Limit,
		Offset:     (qry.Page - 1) * qry.Limit,
	}

	var stories []*storage.Story
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stories, err = s.store.SearchStories(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountStories(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &StoryPage{
		Stories:    stories,
		Page:       qry.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(qry.Limit))),
		Total:      total,
	}, nil
}

// AuthorProfile is the public view of an account.
type AuthorProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// GetAuthor returns the public profile of an account.
func (s *Service) GetAuthor(ctx context.Context, id string) (*AuthorProfile, error) {
	if err := validateID("author_id", id); err != nil {
		return nil, err
	}
	a, err := s.store.GetAccountByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &AuthorProfile{ID: a.ID, Name: a.Name, Role: a.Role}, nil
}
