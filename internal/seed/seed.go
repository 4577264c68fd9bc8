// Package seed loads accounts, stories and ratings from YAML into a fresh
// MicroTales database.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultData []byte

// Data is a seed document.
type Data struct {
	Accounts     []Account    `yaml:"accounts"`
	GuestStories []GuestStory `yaml:"guest_stories"`
	Ratings      []Rating     `yaml:"ratings"`
}

// Account is a seeded account and the stories it owns.
type Account struct {
	Name     string  `yaml:"name"`
	Email    string  `yaml:"email"`
	Password string  `yaml:"password"`
	Role     string  `yaml:"role"`
	Stories  []Story `yaml:"stories"`
}

// Story is a seeded story. Public defaults to true.
type Story struct {
	Title   string `yaml:"title"`
	Genre   string `yaml:"genre"`
	Content string `yaml:"content"`
	Public  *bool  `yaml:"public"`
}

// GuestStory is a story submitted without an account.
type GuestStory struct {
	Story `yaml:",inline"`
	Email string `yaml:"email"`
}

// Rating refers to an account by email and a story by title.
type Rating struct {
	Account string `yaml:"account"`
	Story   string `yaml:"story"`
	Value   int    `yaml:"value"`
}

// Result counts what Apply created.
type Result struct {
	Accounts        int
	Stories         int
	GuestStories    int
	Ratings         int
	SkippedAccounts int
}

// Default returns the embedded seed data set.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Parse decodes a seed document.
func Parse(data []byte) (*Data, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("seed: document is empty")
	}
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &d, nil
}

// LoadFile reads and decodes a seed document from path.
func LoadFile(path string) (*Data, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	d, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return d, nil
}

// Apply creates the seeded records through svc so they pass the same
// validation as API input. Accounts whose email is already registered are
// skipped together with their stories. Guest stories have no natural key
// and are created on every run.
// Ratings are applied only when both the account and the story were created
// in this run.
func Apply(ctx context.Context, svc *tales.Service, d *Data, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{}
	callers := make(map[string]tales.Caller)
	storyIDs := make(map[string]string)

	for _, a := range d.Accounts {
		role := a.Role
		if role == "" {
			role = storage.RoleAuthor
		}
		account, err := svc.CreateAccount(ctx, tales.SignUpInput{
			Name:     a.Name,
			Email:    a.Email,
			Password: a.Password,
		}, role)
		if errors.Is(err, tales.ErrAccountExists) {
			logger.Info("seed account exists, skipping", "email", a.Email)
			res.SkippedAccounts++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed: account %s: %w", a.Email, err)
		}
		res.Accounts++

		caller := tales.Caller{AccountID: account.ID, Role: account.Role}
		callers[a.Email] = caller

		for _, s := range a.Stories {
			story, err := svc.CreateStory(ctx, caller, s.input())
			if err != nil {
				return res, fmt.Errorf("seed: story %q: %w", s.Title, err)
			}
			storyIDs[s.Title] = story.ID
			res.Stories++
		}
	}

	for _, g := range d.GuestStories {
		sub, err := svc.SubmitGuestStory(ctx, g.input(), g.Email)
		if err != nil {
			return res, fmt.Errorf("seed: guest story %q: %w", g.Title, err)
		}
		storyIDs[g.Title] = sub.Story.ID
		res.GuestStories++
	}

	for _, r := range d.Ratings {
		caller, ok := callers[r.Account]
		storyID, found := storyIDs[r.Story]
		if !ok || !found {
			logger.Debug("seed rating skipped", "account", r.Account, "story", r.Story)
			continue
		}
		if _, err := svc.RateStory(ctx, caller, storyID, r.Value); err != nil {
			return res, fmt.Errorf("seed: rating of %q by %s: %w", r.Story, r.Account, err)
		}
		res.Ratings++
	}

	logger.Info("seed applied",
		"accounts", res.Accounts,
		"stories", res.Stories,
		"guest_stories", res.GuestStories,
		"ratings", res.Ratings,
		"skipped_accounts", res.SkippedAccounts,
	)
	return res, nil
}

func (s Story) input() tales.StoryInput {
	public := true
	if s.Public != nil {
		public = *s.Public
	}
	return tales.StoryInput{Title: s.Title, Content: s.Content, Genre: s.Genre, IsPublic: public}
}
