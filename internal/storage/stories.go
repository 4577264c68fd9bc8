package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// storySelect selects every story column plus the owning author's name.
const storySelect = `SELECT s.id, s.title, s.content, s.genre, s.rating, s.views, s.reading_time,
	s.is_public, s.is_guest, s.is_visible, s.guest_email, s.secret_code, s.author_id,
	COALESCE(a.name, ''), s.created_at, s.edited_at
	FROM stories s LEFT JOIN accounts a ON a.id = s.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*Story, error) {
	var s Story
	var guestEmail, secretCode, authorID sql.NullString
	err := row.Scan(&s.ID, &s.Title, &s.Content, &s.Genre, &s.Rating, &s.Views, &s.ReadingTime,
		&s.IsPublic, &s.IsGuest, &s.IsVisible, &guestEmail, &secretCode, &authorID,
		&s.AuthorName, &s.CreatedAt, &s.EditedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.GuestEmail = guestEmail.String
	s.SecretCode = secretCode.String
	s.AuthorID = authorID.String
	return &s, nil
}

func scanStories(rows *sql.Rows) ([]*Story, error) {
	defer rows.Close() //nolint:errcheck

	stories := make([]*Story, 0)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stories: %w", err)
	}
	return stories, nil
}

// CreateStory inserts a new story.
// Returns ErrDuplicate if the secret code is already in use.
func (q *queries) CreateStory(ctx context.Context, s *Story) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO stories (id, title, content, genre, rating, views, reading_time,
			is_public, is_guest, is_visible, guest_email, secret_code, author_id, created_at, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.Content, s.Genre, s.Rating, s.Views, s.ReadingTime,
		s.IsPublic, s.IsGuest, s.IsVisible, nullString(s.GuestEmail), nullString(s.SecretCode),
		nullString(s.AuthorID), s.CreatedAt, s.EditedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetStory retrieves a story by ID regardless of visibility.
// Returns ErrNotFound if the story doesn't exist.
func (q *queries) GetStory(ctx context.Context, id string) (*Story, error) {
	s, err := scanStory(q.db.QueryRowContext(ctx, storySelect+" WHERE s.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return s, nil
}

// GetGuestStoryBySecret retrieves the guest story holding secretCode.
// Returns ErrNotFound if no guest story matches.
func (q *queries) GetGuestStoryBySecret(ctx context.Context, secretCode string) (*Story, error) {
	s, err := scanStory(q.db.QueryRowContext(ctx,
		storySelect+" WHERE s.secret_code = ? AND s.is_guest = 1", secretCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get story by secret: %w", err)
	}
	return s, nil
}

// UpdateStory writes the editable fields and returns the updated story.
// Returns ErrNotFound if the story doesn't exist and ErrDuplicate if the new
// secret code collides with another story.
func (q *queries) UpdateStory(ctx context.Context, id string, upd *StoryUpdate) (*Story, error) {
	query := `UPDATE stories SET title = ?, content = ?, genre = ?, is_public = ?,
		reading_time = ?, edited_at = ?`
	args := []any{upd.Title, upd.Content, upd.Genre, upd.IsPublic, upd.ReadingTime, upd.EditedAt}
	if upd.SecretCode != "" {
		query += ", secret_code = ?"
		args = append(args, upd.SecretCode)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return q.GetStory(ctx, id)
}

// AssignStoryOwner binds a story to an account and makes it visible in a
// single statement. Returns ErrNotFound if the story doesn't exist.
func (q *queries) AssignStoryOwner(ctx context.Context, id, accountID string) (*Story, error) {
	result, err := q.db.ExecContext(ctx,
		"UPDATE stories SET author_id = ?, is_visible = 1 WHERE id = ?", accountID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to assign story owner: %w", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return q.GetStory(ctx, id)
}

// DeleteStory deletes a story by ID.
// Cascades to edit tokens, ratings and reads via foreign key constraints.
// Returns ErrNotFound if the story doesn't exist.
func (q *queries) DeleteStory(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, "DELETE FROM stories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return requireRow(result)
}

// IncrementViews adds one to the story's view counter.
func (q *queries) IncrementViews(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, "UPDATE stories SET views = views + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return requireRow(result)
}

// GetFeaturedStory returns the newest public, visible, non-guest story.
// Returns ErrNotFound if there is none.
func (q *queries) GetFeaturedStory(ctx context.Context) (*Story, error) {
	s, err := scanStory(q.db.QueryRowContext(ctx, storySelect+
		" WHERE s.is_public = 1 AND s.is_guest = 0 AND s.is_visible = 1"+
		" ORDER BY s.created_at DESC, s.rowid DESC LIMIT 1"))
	if err != nil {
		return nil, fmt.Errorf("failed to get featured story: %w", err)
	}
	return s, nil
}

// ListStoriesByAuthor returns the visible stories owned by authorID, newest first.
// Returns an empty slice if there are none.
func (q *queries) ListStoriesByAuthor(ctx context.Context, authorID string) ([]*Story, error) {
	rows, err := q.db.QueryContext(ctx, storySelect+
		" WHERE s.author_id = ? AND s.is_visible = 1 ORDER BY s.created_at DESC, s.rowid DESC", authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories by author: %w", err)
	}
	return scanStories(rows)
}

// SearchStories returns one page of visible stories matching f.
func (q *queries) SearchStories(ctx context.Context, f *StoryFilter) ([]*Story, error) {
	where, args := f.whereClause()

	var order string
	switch f.SortBy {
	case SortHighestRated:
		order = "s.rating DESC, s.created_at DESC"
	case SortMostRead:
		order = "s.views DESC, s.created_at DESC"
	default:
		order = "s.created_at DESC"
	}

	query := storySelect + " WHERE " + where + " ORDER BY " + order + ", s.rowid DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search stories: %w", err)
	}
	return scanStories(rows)
}

// CountStories returns the number of visible stories matching f, ignoring
// Limit and Offset.
func (q *queries) CountStories(ctx context.Context, f *StoryFilter) (int, error) {
	where, args := f.whereClause()

	var count int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories s WHERE "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return count, nil
}

// AuthorRatingStats returns the mean of the denormalized ratings of the
// author's visible stories and how many stories there are.
func (q *queries) AuthorRatingStats(ctx context.Context, authorID string) (float64, int, error) {
	var avg float64
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM stories WHERE author_id = ? AND is_visible = 1",
		authorID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute author rating: %w", err)
	}
	return avg, count, nil
}

// whereClause builds the shared filter for search and count.
func (f *StoryFilter) whereClause() (string, []any) {
	clauses := []string{"s.is_visible = 1"}
	var args []any

	if f.Genre != "" {
		clauses = append(clauses, "s.genre = ?")
		args = append(args, f.Genre)
	}
	if f.PublicOnly {
		clauses = append(clauses, "s.is_public = 1")
	}
	if f.Search != "" {
		// LIKE is case-insensitive for ASCII in SQLite
		pattern := "%" + escapeLike(f.Search) + "%"
		clauses = append(clauses, `(s.title LIKE ? ESCAPE '\' OR s.content LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// requireRow maps a zero-row write to ErrNotFound.
func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
