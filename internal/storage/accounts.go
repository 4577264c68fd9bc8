package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const accountColumns = "id, name, email, password_hash, role, created_at, updated_at"

// CreateAccount inserts a new account.
// Returns ErrDuplicate if the email is already registered.
func (q *queries) CreateAccount(ctx context.Context, a *Account) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by ID.
// Returns ErrNotFound if the account doesn't exist.
func (q *queries) GetAccountByID(ctx context.Context, id string) (*Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}
	return a, nil
}

// GetAccountByEmail retrieves an account by email, ignoring case.
// Returns ErrNotFound if no account uses the email.
func (q *queries) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ?", email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return a, nil
}

// HasAnyAdmin reports whether at least one admin account exists.
func (q *queries) HasAnyAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE role = ?)", RoleAdmin).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for admin accounts: %w", err)
	}
	return exists, nil
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
