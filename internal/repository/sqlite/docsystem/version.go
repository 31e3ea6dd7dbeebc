package docsystem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/sqlite"
)

// SQLiteVersionRepository implements the VersionRepository interface
type SQLiteVersionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *sqlite.RepositoryConfig) docsysRepo.VersionRepository {
	return &SQLiteVersionRepository{db: config.DB, logger: config.Logger}
}

const versionColumns = `id, document_id, version, title, content,
	added_words, deleted_words, added_chars, deleted_chars,
	author_id, is_milestone, milestone_description, save_id, created_at`

// Insert appends a snapshot row
func (r *SQLiteVersionRepository) Insert(ctx context.Context, v *models.DocumentVersion) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO document_versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.DocumentID,
		v.Version,
		v.Title,
		v.Content,
		v.ChangeSummary.AddedWords,
		v.ChangeSummary.DeletedWords,
		v.ChangeSummary.AddedChars,
		v.ChangeSummary.DeletedChars,
		v.AuthorID,
		v.IsMilestone,
		v.MilestoneDescription,
		v.SaveID,
		sqlite.ToMillis(v.CreatedAt),
	)
	if err != nil {
		if sqlite.IsUniqueError(err) {
			return domain.NewVersionConflict(v.DocumentID, v.Version-1, 0)
		}
		if sqlite.IsForeignKeyError(err) {
			return domain.NewNotFound("document", v.DocumentID)
		}
		return fmt.Errorf("insert version: %w", err)
	}

	return nil
}

// Get retrieves one snapshot
func (r *SQLiteVersionRepository) Get(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE document_id = ? AND version = ?`,
		documentID, version)

	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("version", fmt.Sprintf("%s@%d", documentID, version))
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return v, nil
}

// GetBySaveID retrieves the snapshot written by a client save id
func (r *SQLiteVersionRepository) GetBySaveID(ctx context.Context, documentID, saveID string) (*models.DocumentVersion, error) {
	row := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM document_versions WHERE document_id = ? AND save_id = ? AND save_id <> ''`,
		documentID, saveID)

	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("save", saveID)
		}
		return nil, fmt.Errorf("get version by save id: %w", err)
	}

	return v, nil
}

// List returns snapshots newest first
func (r *SQLiteVersionRepository) List(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, error) {
	return r.query(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE document_id = ?
		ORDER BY version DESC
		LIMIT ? OFFSET ?`, documentID, limit, offset)
}

// ListMilestones returns milestone snapshots newest first
func (r *SQLiteVersionRepository) ListMilestones(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	return r.query(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE document_id = ? AND is_milestone = 1
		ORDER BY version DESC`, documentID)
}

// Count returns the number of snapshots for a document
func (r *SQLiteVersionRepository) Count(ctx context.Context, documentID string) (int, error) {
	var count int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_versions WHERE document_id = ?`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return count, nil
}

func (r *SQLiteVersionRepository) query(ctx context.Context, query string, args ...any) ([]models.DocumentVersion, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []models.DocumentVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.DocumentVersion, error) {
	var (
		v       models.DocumentVersion
		created int64
	)
	err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.Version,
		&v.Title,
		&v.Content,
		&v.ChangeSummary.AddedWords,
		&v.ChangeSummary.DeletedWords,
		&v.ChangeSummary.AddedChars,
		&v.ChangeSummary.DeletedChars,
		&v.AuthorID,
		&v.IsMilestone,
		&v.MilestoneDescription,
		&v.SaveID,
		&created,
	)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = sqlite.FromMillis(created)
	return &v, nil
}
