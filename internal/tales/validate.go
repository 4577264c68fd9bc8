package tales

import (
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Genres accepted for stories.
var Genres = []string{
	"adventure", "horror", "thriller", "western", "fantasy",
	"romance", "sci-fi", "mystery", "misc",
}

// DefaultGenre is used when a submission leaves the genre empty.
const DefaultGenre = "misc"

const (
	minTitleLength   = 3
	maxTitleLength   = 100
	minContentLength = 10
	maxWords         = 500
	wordsPerMinute   = 200
	minPasswordLen   = 8
)

// StoryInput carries the editable fields of a story.
type StoryInput struct {
	Title    string
	Content  string
	Genre    string
	IsPublic bool
}

// normalize trims the input and applies the default genre.
func (in StoryInput) normalize() StoryInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Genre = strings.ToLower(strings.TrimSpace(in.Genre))
	if in.Genre == "" {
		in.Genre = DefaultGenre
	}
	return in
}

// validate checks a normalized input.
func (in StoryInput) validate() error {
	titleLen := utf8.RuneCountInString(in.Title)
	switch {
	case titleLen == 0:
		return invalid("title", "title is required")
	case titleLen < minTitleLength:
		return invalid("title", "title must be at least 3 characters")
	case titleLen > maxTitleLength:
		return invalid("title", "title must be less than 100 characters")
	}

	switch {
	case in.Content == "":
		return invalid("content", "content is required")
	case utf8.RuneCountInString(in.Content) < minContentLength:
		return invalid("content", "story must be at least 10 characters")
	case CountWords(in.Content) > maxWords:
		return invalid("content", "story must be less than 500 words")
	}

	if !ValidGenre(in.Genre) {
		return invalid("genre", "invalid genre provided")
	}
	return nil
}

// ValidGenre reports whether genre is one of Genres.
func ValidGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// CountWords counts whitespace-separated words.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// CalculateReadingTime returns the estimated minutes to read content at 200
// words per minute, rounded up. Non-empty content takes at least one minute.
func CalculateReadingTime(content string) int {
	if content == "" {
		return 0
	}
	words := CountWords(content)
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// normalizeEmail trims and lower-cases an address after checking its shape.
func normalizeEmail(field, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid(field, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return "", invalid(field, "please enter a valid email address")
	}
	return strings.ToLower(email), nil
}

// validateID rejects identifiers that are not UUIDs before they reach the store.
func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid(field, "invalid id format")
	}
	return nil
}
