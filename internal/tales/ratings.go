package tales

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
)

// RatingResult reports a stored rating and the story's new average.
type RatingResult struct {
	StoryID string  `json:"story_id"`
	Value   int     `json:"value"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// RateStory records the caller's 1-5 rating of a story, replacing any earlier
// rating by the same caller, and recomputes the story's average in the same
// transaction.
func (s *Service) RateStory(ctx context.Context, caller Caller, storyID string, value int) (*RatingResult, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if err := validateID("story_id", storyID); err != nil {
		return nil, err
	}
	if value < 1 || value > 5 {
		return nil, invalid("rating", "rating must be between 1 and 5")
	}

	var result *RatingResult
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		story, err := q.GetStory(ctx, storyID)
		if err != nil {
			return storyErr(err)
		}
		if !story.IsVisible {
			return ErrStoryNotFound
		}

		now := s.now()
		if err := q.UpsertRating(ctx, &storage.Rating{
			ID:        uuid.NewString(),
			AccountID: caller.AccountID,
			StoryID:   storyID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		avg, count, err := q.AverageRating(ctx, storyID)
		if err != nil {
			return err
		}
		avg = roundRating(avg)
		if err := q.SetStoryRating(ctx, storyID, avg); err != nil {
			return storyErr(err)
		}

		result = &RatingResult{StoryID: storyID, Value: value, Average: avg, Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UserRating returns the caller's rating of a story, or 0 if there is none.
func (s *Service) UserRating(ctx context.Context, caller Caller, storyID string) (int, error) {
	if !caller.Authenticated() {
		return 0, ErrUnauthenticated
	}
	if err := validateID("story_id", storyID); err != nil {
		return 0, err
	}

	r, err := s.store.GetRating(ctx, caller.AccountID, storyID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// AuthorRanking summarizes the ratings of an author's visible stories.
type AuthorRanking struct {
	AuthorID   string  `json:"author_id"`
	AvgRating  float64 `json:"avg_rating"`
	StoryCount int     `json:"story_count"`
}

// RankAuthor returns the mean story rating of an author.
func (s *Service) RankAuthor(ctx context.Context, authorID string) (*AuthorRanking, error) {
	if _, err := s.GetAuthor(ctx, authorID); err != nil {
		return nil, err
	}

	avg, count, err := s.store.AuthorRatingStats(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return &AuthorRanking{AuthorID: authorID, AvgRating: roundRating(avg), StoryCount: count}, nil
}

// roundRating rounds to two decimal places.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}
