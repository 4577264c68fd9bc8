package storage

import "time"

// Account roles.
const (
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// Account is a registered user that can own stories.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Story is a single piece of microfiction.
// AuthorID, GuestEmail and SecretCode are empty when not set.
type Story struct {
	ID          string
	Title       string
	Content     string
	Genre       string
	Rating      float64
	Views       int64
	ReadingTime int
	IsPublic    bool
	IsGuest     bool
	IsVisible   bool
	GuestEmail  string
	SecretCode  string
	AuthorID    string
	AuthorName  string // joined from accounts, read-only
	CreatedAt   time.Time
	EditedAt    time.Time
}

// StoryUpdate holds the editable fields of a story.
// SecretCode is only written when non-empty.
type StoryUpdate struct {
	Title       string
	Content     string
	Genre       string
	IsPublic    bool
	ReadingTime int
	SecretCode  string
	EditedAt    time.Time
}

// Sort orders for SearchStories.
const (
	SortNewest       = "newest"
	SortHighestRated = "highestRated"
	SortMostRead     = "mostRead"
)

// StoryFilter narrows SearchStories and CountStories to visible stories
// matching every non-zero field.
type StoryFilter struct {
	Genre      string
	Search     string
	PublicOnly bool
	SortBy     string
	Limit      int
	Offset     int
}

// EditToken is a single-use credential for one privileged operation on a story.
// Only the SHA-256 digest of the token is persisted.
type EditToken struct {
	ID        string
	StoryID   string
	TokenHash string
	Purpose   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Rating is one account's score for one story.
type Rating struct {
	ID        string
	AccountID string
	StoryID   string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
