// Package sqlite is the embedded storage backend used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database file and applies the engine's schema.
// The pool is pinned to one connection: SQLite has a single writer, and
// pinning keeps PRAGMAs and open transactions on the same handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id              TEXT PRIMARY KEY,
		owner_id        TEXT NOT NULL,
		collaborators   TEXT NOT NULL DEFAULT '[]',
		kind            TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'active',
		title           TEXT NOT NULL,
		content         TEXT NOT NULL DEFAULT '',
		word_count      INTEGER NOT NULL DEFAULT 0,
		current_version INTEGER NOT NULL CHECK (current_version >= 1),
		last_edited_by  TEXT NOT NULL,
		last_edited_at  INTEGER NOT NULL,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS document_versions (
		id                    TEXT PRIMARY KEY,
		document_id           TEXT NOT NULL REFERENCES documents(id),
		version               INTEGER NOT NULL CHECK (version >= 1),
		title                 TEXT NOT NULL,
		content               TEXT NOT NULL,
		added_words           INTEGER NOT NULL DEFAULT 0,
		deleted_words         INTEGER NOT NULL DEFAULT 0,
		added_chars           INTEGER NOT NULL DEFAULT 0,
		deleted_chars         INTEGER NOT NULL DEFAULT 0,
		author_id             TEXT NOT NULL,
		is_milestone          INTEGER NOT NULL DEFAULT 0,
		milestone_description TEXT NOT NULL DEFAULT '',
		save_id               TEXT NOT NULL DEFAULT '',
		created_at            INTEGER NOT NULL,
		UNIQUE (document_id, version)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS document_versions_save_idx
		ON document_versions (document_id, save_id) WHERE save_id <> ''`,
	`CREATE TABLE IF NOT EXISTS writing_sessions (
		id                TEXT PRIMARY KEY,
		document_id       TEXT NOT NULL REFERENCES documents(id),
		user_id           TEXT NOT NULL,
		start_time        INTEGER NOT NULL,
		end_time          INTEGER,
		duration_minutes  INTEGER NOT NULL DEFAULT 0,
		keystrokes        INTEGER NOT NULL DEFAULT 0,
		pause_count       INTEGER NOT NULL DEFAULT 0,
		revision_count    INTEGER NOT NULL DEFAULT 0,
		word_count_at_end INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS writing_sessions_document_idx ON writing_sessions (document_id)`,
	`CREATE TABLE IF NOT EXISTS contributor_stats (
		document_id       TEXT NOT NULL,
		user_id           TEXT NOT NULL,
		words_contributed INTEGER NOT NULL DEFAULT 0,
		edits_count       INTEGER NOT NULL DEFAULT 0,
		comments_count    INTEGER NOT NULL DEFAULT 0,
		updated_at        INTEGER NOT NULL,
		PRIMARY KEY (document_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_writing_patterns (
		document_id        TEXT NOT NULL,
		date               TEXT NOT NULL,
		words_written      INTEGER NOT NULL DEFAULT 0,
		time_spent_minutes INTEGER NOT NULL DEFAULT 0,
		revisions_count    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (document_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		document_id TEXT NOT NULL,
		event_key   TEXT NOT NULL,
		PRIMARY KEY (document_id, event_key)
	)`,
}

// EnsureSchema creates missing tables
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes every engine table
func DropSchema(ctx context.Context, db *sql.DB) error {
	for _, name := range []string{
		"analytics_events",
		"daily_writing_patterns",
		"contributor_stats",
		"writing_sessions",
		"document_versions",
		"documents",
	} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}
