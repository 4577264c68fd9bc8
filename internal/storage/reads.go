package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordRead appends a read of the story. An empty accountID records an
// anonymous read.
func (q *queries) RecordRead(ctx context.Context, storyID, accountID string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO story_reads (id, account_id, story_id, read_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), nullString(accountID), storyID, at)
	if err != nil {
		return fmt.Errorf("failed to record read: %w", err)
	}
	return nil
}

// CountReads returns how many reads were recorded for a story.
func (q *queries) CountReads(ctx context.Context, storyID string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM story_reads WHERE story_id = ?", storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reads: %w", err)
	}
	return count, nil
}
