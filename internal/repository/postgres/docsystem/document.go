package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document head
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, collaborators, kind, status, title, content, word_count,
			current_version, last_edited_by, last_edited_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tables.Documents)

	collaborators := doc.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		doc.ID,
		doc.OwnerID,
		collaborators,
		doc.Kind,
		doc.Status,
		doc.Title,
		doc.Content,
		doc.WordCount,
		doc.CurrentVersion,
		doc.LastEditedBy,
		doc.LastEditedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, collaborators, kind, status, title, content, word_count,
			current_version, last_edited_by, last_edited_at, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Collaborators,
		&doc.Kind,
		&doc.Status,
		&doc.Title,
		&doc.Content,
		&doc.WordCount,
		&doc.CurrentVersion,
		&doc.LastEditedBy,
		&doc.LastEditedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("document", id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// UpdateHead applies a compare-and-swap write on current_version
func (r *PostgresDocumentRepository) UpdateHead(ctx context.Context, upd *models.HeadUpdate) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $3,
		    content = $4,
		    word_count = $5,
		    current_version = $6,
		    last_edited_by = $7,
		    last_edited_at = $8,
		    updated_at = $8,
		    status = COALESCE(NULLIF($9, ''), status)
		WHERE id = $1 AND current_version = $2 AND status <> $10
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		upd.DocumentID,
		upd.ExpectedVersion,
		upd.Title,
		upd.Content,
		upd.WordCount,
		upd.NewVersion,
		upd.EditedBy,
		upd.EditedAt,
		string(upd.Status),
		string(models.DocumentStatusDeleted),
	)
	if err != nil {
		return fmt.Errorf("update document head: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.headMiss(ctx, upd.DocumentID, upd.ExpectedVersion)
	}

	return nil
}

// headMiss explains a zero-row head update: unknown, deleted, or stale version
func (r *PostgresDocumentRepository) headMiss(ctx context.Context, id string, expected int) error {
	query := fmt.Sprintf(`SELECT current_version, status FROM %s WHERE id = $1`, r.tables.Documents)

	var (
		actual int
		status models.DocumentStatus
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&actual, &status); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return domain.NewNotFound("document", id)
		}
		return fmt.Errorf("read document version: %w", err)
	}
	if status == models.DocumentStatusDeleted {
		return domain.NewValidation("document %s is deleted", id)
	}

	r.logger.Debug("document head conflict",
		"document_id", id,
		"expected_version", expected,
		"actual_version", actual,
	)
	return domain.NewVersionConflict(id, expected, actual)
}

// SetStatus changes the lifecycle flag
func (r *PostgresDocumentRepository) SetStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", id)
	}

	return nil
}

// AddCollaborator appends userID to the collaborator array if absent
func (r *PostgresDocumentRepository) AddCollaborator(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET collaborators = CASE
		        WHEN $2 = ANY(collaborators) THEN collaborators
		        ELSE array_append(collaborators, $2)
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", id)
	}

	return nil
}
