// Package storage handles all database operations for MicroTales.
package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ddlStatements := []string{
		// accounts table: registered users
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'author' CHECK (role IN ('author', 'admin')),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// stories table: author_id is nulled when the owning account goes away
		`CREATE TABLE IF NOT EXISTS stories (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			genre TEXT NOT NULL,
			rating REAL NOT NULL DEFAULT 0,
			views INTEGER NOT NULL DEFAULT 0,
			reading_time INTEGER NOT NULL,
			is_public BOOLEAN NOT NULL DEFAULT 1,
			is_guest BOOLEAN NOT NULL DEFAULT 0,
			is_visible BOOLEAN NOT NULL DEFAULT 1,
			guest_email TEXT,
			secret_code TEXT UNIQUE,
			author_id TEXT REFERENCES accounts(id) ON DELETE SET NULL,
			created_at TIMESTAMP NOT NULL,
			edited_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_stories_author ON stories(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at)`,

		// edit_access_tokens table: expires_at is unix milliseconds
		`CREATE TABLE IF NOT EXISTS edit_access_tokens (
			id TEXT PRIMARY KEY,
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			purpose TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_edit_tokens_story ON edit_access_tokens(story_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edit_tokens_expires ON edit_access_tokens(expires_at)`,

		// ratings table: one row per (account, story)
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			value INTEGER NOT NULL CHECK (value BETWEEN 1 AND 5),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, story_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ratings_story ON ratings(story_id)`,

		// story_reads table: anonymous reads have a NULL account_id
		`CREATE TABLE IF NOT EXISTS story_reads (
			id TEXT PRIMARY KEY,
			account_id TEXT REFERENCES accounts(id) ON DELETE SET NULL,
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			read_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_story_reads_story ON story_reads(story_id)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}
