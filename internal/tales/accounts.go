package tales

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// SignUpInput carries the fields of a new account.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// SignUp registers an author account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*storage.Account, error) {
	return s.CreateAccount(ctx, in, storage.RoleAuthor)
}

// CreateAccount registers an account with the given role. Public sign-up
// goes through SignUp; other roles are for seeding and operators.
func (s *Service) CreateAccount(ctx context.Context, in SignUpInput, role string) (*storage.Account, error) {
	a, err := s.newAccount(in, role)
	if err != nil {
		return nil, err
	}
	if err := s.insertAccount(ctx, s.store, a); err != nil {
		return nil, err
	}
	return a, nil
}

// newAccount validates in and builds an account with a hashed password.
func (s *Service) newAccount(in SignUpInput, role string) (*storage.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	email, err := normalizeEmail("email", in.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, invalid("password", "password must be at least 8 characters")
	}
	if role != storage.RoleAuthor && role != storage.RoleAdmin {
		return nil, invalid("role", "role must be author or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &storage.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) insertAccount(ctx context.Context, q storage.Querier, a *storage.Account) error {
	if err := q.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrAccountExists
		}
		return err
	}
	s.logger.Info("account created", "account_id", a.ID, "role", a.Role)
	return nil
}

// Authenticate returns the account matching email and password.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*storage.Account, error) {
	a, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// GetAccount returns an account by ID.
func (s *Service) GetAccount(ctx context.Context, id string) (*storage.Account, error) {
	a, err := s.store.GetAccountByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
