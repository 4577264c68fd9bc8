package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertRating stores r, replacing the value of an existing rating by the
// same account for the same story. The stored row keeps its original ID and
// creation time on update.
func (q *queries) UpsertRating(ctx context.Context, r *Rating) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO ratings (id, account_id, story_id, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, story_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		r.ID, r.AccountID, r.StoryID, r.Value, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// GetRating returns the account's rating for a story.
// Returns ErrNotFound if the account hasn't rated it.
func (q *queries) GetRating(ctx context.Context, accountID, storyID string) (*Rating, error) {
	var r Rating
	err := q.db.QueryRowContext(ctx,
		`SELECT id, account_id, story_id, value, created_at, updated_at
		FROM ratings WHERE account_id = ? AND story_id = ?`,
		accountID, storyID).
		Scan(&r.ID, &r.AccountID, &r.StoryID, &r.Value, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &r, nil
}

// CountRatings returns how many ratings a story has.
func (q *queries) CountRatings(ctx context.Context, storyID string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ratings WHERE story_id = ?", storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}

// AverageRating returns the unrounded mean rating of a story and the number
// of ratings it is based on. The mean is 0 when there are no ratings.
func (q *queries) AverageRating(ctx context.Context, storyID string) (float64, int, error) {
	var avg float64
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(value), 0), COUNT(*) FROM ratings WHERE story_id = ?", storyID).
		Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	return avg, count, nil
}

// SetStoryRating writes the denormalized rating onto the story row.
// Returns ErrNotFound if the story doesn't exist.
func (q *queries) SetStoryRating(ctx context.Context, storyID string, rating float64) error {
	result, err := q.db.ExecContext(ctx, "UPDATE stories SET rating = ? WHERE id = ?", rating, storyID)
	if err != nil {
		return fmt.Errorf("failed to set story rating: %w", err)
	}
	return requireRow(result)
}
