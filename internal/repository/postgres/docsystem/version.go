package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docsysRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const versionColumns = `id, document_id, version, title, content,
	added_words, deleted_words, added_chars, deleted_chars,
	author_id, is_milestone, milestone_description, save_id, created_at`

// Insert appends a snapshot row
func (r *PostgresVersionRepository) Insert(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.tables.DocumentVersions, versionColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
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
		v.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return domain.NewVersionConflict(v.DocumentID, v.Version-1, 0)
		}
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("document", v.DocumentID)
		}
		return fmt.Errorf("insert version: %w", err)
	}

	return nil
}

// Get retrieves one snapshot
func (r *PostgresVersionRepository) Get(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1 AND version = $2
	`, versionColumns, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	v, err := scanVersion(executor.QueryRow(ctx, query, documentID, version))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("version", fmt.Sprintf("%s@%d", documentID, version))
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return v, nil
}

// GetBySaveID retrieves the snapshot written by a client save id
func (r *PostgresVersionRepository) GetBySaveID(ctx context.Context, documentID, saveID string) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1 AND save_id = $2 AND save_id <> ''
	`, versionColumns, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	v, err := scanVersion(executor.QueryRow(ctx, query, documentID, saveID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("save", saveID)
		}
		return nil, fmt.Errorf("get version by save id: %w", err)
	}

	return v, nil
}

// List returns snapshots newest first
func (r *PostgresVersionRepository) List(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1
		ORDER BY version DESC
		LIMIT $2 OFFSET $3
	`, versionColumns, r.tables.DocumentVersions)

	return r.query(ctx, query, documentID, limit, offset)
}

// ListMilestones returns milestone snapshots newest first
func (r *PostgresVersionRepository) ListMilestones(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = $1 AND is_milestone
		ORDER BY version DESC
	`, versionColumns, r.tables.DocumentVersions)

	return r.query(ctx, query, documentID)
}

// Count returns the number of snapshots for a document
func (r *PostgresVersionRepository) Count(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, r.tables.DocumentVersions)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return count, nil
}

func (r *PostgresVersionRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.DocumentVersion, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
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

func scanVersion(row pgx.Row) (*models.DocumentVersion, error) {
	var v models.DocumentVersion
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
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
