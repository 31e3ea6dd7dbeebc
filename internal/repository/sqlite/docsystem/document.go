package docsystem

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/sqlite"
)

// SQLiteDocumentRepository implements the DocumentRepository interface
type SQLiteDocumentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *sqlite.RepositoryConfig) docsysRepo.DocumentRepository {
	return &SQLiteDocumentRepository{db: config.DB, logger: config.Logger}
}

// Create creates a new document head
func (r *SQLiteDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	collaborators, err := encodeCollaborators(doc.Collaborators)
	if err != nil {
		return err
	}

	_, err = sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, collaborators, kind, status, title, content, word_count,
			current_version, last_edited_by, last_edited_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		doc.OwnerID,
		collaborators,
		string(doc.Kind),
		string(doc.Status),
		doc.Title,
		doc.Content,
		doc.WordCount,
		doc.CurrentVersion,
		doc.LastEditedBy,
		sqlite.ToMillis(doc.LastEditedAt),
		sqlite.ToMillis(doc.CreatedAt),
		sqlite.ToMillis(doc.UpdatedAt),
	)
	if err != nil {
		if sqlite.IsUniqueError(err) {
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
func (r *SQLiteDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var (
		doc                           models.Document
		collaborators                 string
		kind, status                  string
		lastEdited, created, modified int64
	)

	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, owner_id, collaborators, kind, status, title, content, word_count,
			current_version, last_edited_by, last_edited_at, created_at, updated_at
		FROM documents
		WHERE id = ?`, id).Scan(
		&doc.ID,
		&doc.OwnerID,
		&collaborators,
		&kind,
		&status,
		&doc.Title,
		&doc.Content,
		&doc.WordCount,
		&doc.CurrentVersion,
		&doc.LastEditedBy,
		&lastEdited,
		&created,
		&modified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("document", id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := json.Unmarshal([]byte(collaborators), &doc.Collaborators); err != nil {
		return nil, fmt.Errorf("decode collaborators: %w", err)
	}
	doc.Kind = models.DocumentKind(kind)
	doc.Status = models.DocumentStatus(status)
	doc.LastEditedAt = sqlite.FromMillis(lastEdited)
	doc.CreatedAt = sqlite.FromMillis(created)
	doc.UpdatedAt = sqlite.FromMillis(modified)

	return &doc, nil
}

// UpdateHead applies a compare-and-swap write on current_version
func (r *SQLiteDocumentRepository) UpdateHead(ctx context.Context, upd *models.HeadUpdate) error {
	editedAt := sqlite.ToMillis(upd.EditedAt)

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE documents
		SET title = ?,
		    content = ?,
		    word_count = ?,
		    current_version = ?,
		    last_edited_by = ?,
		    last_edited_at = ?,
		    updated_at = ?,
		    status = COALESCE(NULLIF(?, ''), status)
		WHERE id = ? AND current_version = ? AND status <> ?`,
		upd.Title,
		upd.Content,
		upd.WordCount,
		upd.NewVersion,
		upd.EditedBy,
		editedAt,
		editedAt,
		string(upd.Status),
		upd.DocumentID,
		upd.ExpectedVersion,
		string(models.DocumentStatusDeleted),
	)
	if err != nil {
		return fmt.Errorf("update document head: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document head: %w", err)
	}
	if affected == 0 {
		return r.headMiss(ctx, upd.DocumentID, upd.ExpectedVersion)
	}

	return nil
}

// headMiss explains a zero-row head update: unknown, deleted, or stale version
func (r *SQLiteDocumentRepository) headMiss(ctx context.Context, id string, expected int) error {
	var (
		actual int
		status string
	)
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT current_version, status FROM documents WHERE id = ?`, id).Scan(&actual, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("document", id)
		}
		return fmt.Errorf("read document version: %w", err)
	}
	if models.DocumentStatus(status) == models.DocumentStatusDeleted {
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
func (r *SQLiteDocumentRepository) SetStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE documents SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}
	return requireRow(result, "document", id)
}

// AddCollaborator adds userID to the collaborator list if absent
func (r *SQLiteDocumentRepository) AddCollaborator(ctx context.Context, id, userID string) error {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if slices.Contains(doc.Collaborators, userID) {
		return nil
	}

	collaborators, err := encodeCollaborators(append(doc.Collaborators, userID))
	if err != nil {
		return err
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE documents SET collaborators = ? WHERE id = ?`, collaborators, id)
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	return requireRow(result, "document", id)
}

func encodeCollaborators(collaborators []string) (string, error) {
	if collaborators == nil {
		collaborators = []string{}
	}
	data, err := json.Marshal(collaborators)
	if err != nil {
		return "", fmt.Errorf("encode collaborators: %w", err)
	}
	return string(data), nil
}

func requireRow(result sql.Result, resourceType, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFound(resourceType, id)
	}
	return nil
}
