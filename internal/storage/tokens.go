package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateEditToken stores a new edit access token.
// Returns ErrDuplicate if a token with this hash already exists.
func (q *queries) CreateEditToken(ctx context.Context, t *EditToken) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO edit_access_tokens (id, story_id, token_hash, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.StoryID, t.TokenHash, t.Purpose, t.ExpiresAt.UnixMilli(), t.CreatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create edit token: %w", err)
	}
	return nil
}

// GetEditTokenByHash retrieves a token by its hash, expired or not.
// Returns ErrNotFound if the hash doesn't exist.
func (q *queries) GetEditTokenByHash(ctx context.Context, tokenHash string) (*EditToken, error) {
	var t EditToken
	var expiresAt int64

	err := q.db.QueryRowContext(ctx,
		"SELECT id, story_id, token_hash, purpose, expires_at, created_at FROM edit_access_tokens WHERE token_hash = ?",
		tokenHash).
		Scan(&t.ID, &t.StoryID, &t.TokenHash, &t.Purpose, &expiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get edit token by hash: %w", err)
	}

	t.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &t, nil
}

// DeleteEditToken deletes a token by ID.
// Returns ErrNotFound if the token doesn't exist, which is how a consumer
// that lost a race for the same token finds out.
func (q *queries) DeleteEditToken(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, "DELETE FROM edit_access_tokens WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete edit token: %w", err)
	}
	return requireRow(result)
}

// CountEditTokensForStory returns how many tokens, expired or not, point at a story.
func (q *queries) CountEditTokensForStory(ctx context.Context, storyID string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM edit_access_tokens WHERE story_id = ?", storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count edit tokens: %w", err)
	}
	return count, nil
}

// DeleteExpiredEditTokens removes every token whose expiry is at or before now and
// returns how many were removed.
func (q *queries) DeleteExpiredEditTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		"DELETE FROM edit_access_tokens WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired edit tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
