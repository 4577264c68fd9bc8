// Package tales implements the MicroTales domain: guest authorship tokens,
// ownership transfer, story management, ratings and accounts.
package tales

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sipico/microtales/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Token validity windows.
const (
	GuestEditTTL = 2 * time.Hour
	ClaimTTL     = 24 * time.Hour
)

// maxCodeAttempts bounds retries when a generated secret code or token
// collides with an existing one.
const maxCodeAttempts = 5

// Caller is the verified identity making a request. The zero value is an
// anonymous caller.
type Caller struct {
	AccountID string
	Role      string
}

// Authenticated reports whether the caller has a verified account.
func (c Caller) Authenticated() bool {
	return c.AccountID != ""
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == storage.RoleAdmin
}

// Service provides the MicroTales operations on top of a Storage.
type Service struct {
	store        storage.Storage
	logger       *slog.Logger
	now          func() time.Time
	passwordCost int
}

// NewService creates a service backed by store.
func NewService(store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		passwordCost: bcrypt.DefaultCost,
	}
}

// SetClock replaces the time source used for timestamps and token expiry.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetPasswordCost sets the bcrypt cost used for new password hashes.
func (s *Service) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

// storyErr maps storage.ErrNotFound to ErrStoryNotFound.
func storyErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStoryNotFound
	}
	return err
}
