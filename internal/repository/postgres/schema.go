package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements returns idempotent DDL for the engine's tables.
// document_versions has no UPDATE path anywhere in the code; the unique key on
// (document_id, version) is what turns a lost append race into a conflict.
func schemaStatements(t *TableNames) []string {
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id              TEXT PRIMARY KEY,
				owner_id        TEXT NOT NULL,
				collaborators   TEXT[] NOT NULL DEFAULT '{}',
				kind            TEXT NOT NULL,
				status          TEXT NOT NULL DEFAULT 'active',
				title           VARCHAR(255) NOT NULL,
				content         TEXT NOT NULL DEFAULT '',
				word_count      INTEGER NOT NULL DEFAULT 0,
				current_version INTEGER NOT NULL CHECK (current_version >= 1),
				last_edited_by  TEXT NOT NULL,
				last_edited_at  TIMESTAMPTZ NOT NULL,
				created_at      TIMESTAMPTZ NOT NULL,
				updated_at      TIMESTAMPTZ NOT NULL
			)`, t.Documents),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id                    TEXT PRIMARY KEY,
				document_id           TEXT NOT NULL REFERENCES %s(id),
				version               INTEGER NOT NULL CHECK (version >= 1),
				title                 VARCHAR(255) NOT NULL,
				content               TEXT NOT NULL,
				added_words           INTEGER NOT NULL DEFAULT 0,
				deleted_words         INTEGER NOT NULL DEFAULT 0,
				added_chars           INTEGER NOT NULL DEFAULT 0,
				deleted_chars         INTEGER NOT NULL DEFAULT 0,
				author_id             TEXT NOT NULL,
				is_milestone          BOOLEAN NOT NULL DEFAULT FALSE,
				milestone_description TEXT NOT NULL DEFAULT '',
				save_id               TEXT NOT NULL DEFAULT '',
				created_at            TIMESTAMPTZ NOT NULL,
				UNIQUE (document_id, version)
			)`, t.DocumentVersions, t.Documents),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_save_idx ON %[1]s (document_id, save_id) WHERE save_id <> ''`, t.DocumentVersions),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id                TEXT PRIMARY KEY,
				document_id       TEXT NOT NULL REFERENCES %s(id),
				user_id           TEXT NOT NULL,
				start_time        TIMESTAMPTZ NOT NULL,
				end_time          TIMESTAMPTZ,
				duration_minutes  INTEGER NOT NULL DEFAULT 0,
				keystrokes        INTEGER NOT NULL DEFAULT 0,
				pause_count       INTEGER NOT NULL DEFAULT 0,
				revision_count    INTEGER NOT NULL DEFAULT 0,
				word_count_at_end INTEGER NOT NULL DEFAULT 0,
				CHECK (end_time IS NULL OR end_time >= start_time)
			)`, t.WritingSessions, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_document_idx ON %[1]s (document_id)`, t.WritingSessions),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				document_id       TEXT NOT NULL,
				user_id           TEXT NOT NULL,
				words_contributed INTEGER NOT NULL DEFAULT 0,
				edits_count       INTEGER NOT NULL DEFAULT 0,
				comments_count    INTEGER NOT NULL DEFAULT 0,
				updated_at        TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (document_id, user_id)
			)`, t.ContributorStats),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				document_id        TEXT NOT NULL,
				date               DATE NOT NULL,
				words_written      INTEGER NOT NULL DEFAULT 0,
				time_spent_minutes INTEGER NOT NULL DEFAULT 0,
				revisions_count    INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (document_id, date)
			)`, t.DailyPatterns),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				document_id TEXT NOT NULL,
				event_key   TEXT NOT NULL,
				created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (document_id, event_key)
			)`, t.AnalyticsEvents),
	}
}

// EnsureSchema creates missing tables. It never alters existing ones.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, stmt := range schemaStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes every engine table for the configured prefix
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, name := range []string{
		tables.AnalyticsEvents,
		tables.DailyPatterns,
		tables.ContributorStats,
		tables.WritingSessions,
		tables.DocumentVersions,
		tables.Documents,
	} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}
