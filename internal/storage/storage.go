// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
	"time"
)

// Querier is the set of data operations available both on the storage
// itself and inside a transaction started with InTx.
type Querier interface {
	// Account operations
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	HasAnyAdmin(ctx context.Context) (bool, error)

	// Story operations
	CreateStory(ctx context.Context, s *Story) error
	GetStory(ctx context.Context, id string) (*Story, error)
	GetGuestStoryBySecret(ctx context.Context, secretCode string) (*Story, error)
	UpdateStory(ctx context.Context, id string, upd *StoryUpdate) (*Story, error)
	AssignStoryOwner(ctx context.Context, id, accountID string) (*Story, error)
	DeleteStory(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	GetFeaturedStory(ctx context.Context) (*Story, error)
	ListStoriesByAuthor(ctx context.Context, authorID string) ([]*Story, error)
	SearchStories(ctx context.Context, f *StoryFilter) ([]*Story, error)
	CountStories(ctx context.Context, f *StoryFilter) (int, error)
	AuthorRatingStats(ctx context.Context, authorID string) (float64, int, error)

	// Edit access token operations
	CreateEditToken(ctx context.Context, t *EditToken) error
	GetEditTokenByHash(ctx context.Context, tokenHash string) (*EditToken, error)
	DeleteEditToken(ctx context.Context, id string) error
	CountEditTokensForStory(ctx context.Context, storyID string) (int, error)
	DeleteExpiredEditTokens(ctx context.Context, now time.Time) (int64, error)

	// Rating operations
	UpsertRating(ctx context.Context, r *Rating) error
	GetRating(ctx context.Context, accountID, storyID string) (*Rating, error)
	CountRatings(ctx context.Context, storyID string) (int, error)
	AverageRating(ctx context.Context, storyID string) (float64, int, error)
	SetStoryRating(ctx context.Context, storyID string, rating float64) error

	// Read tracking
	RecordRead(ctx context.Context, storyID, accountID string, at time.Time) error
	CountReads(ctx context.Context, storyID string) (int, error)
}

// Storage defines the interface for SQLite persistence operations.
type Storage interface {
	Querier

	// InTx runs fn inside a single database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Querier) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
