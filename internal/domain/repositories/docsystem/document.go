package docsystem

import (
	"context"

	"scriptorium/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for document heads
type DocumentRepository interface {
	// Create inserts a new document head. ID and timestamps are set by the caller.
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document by ID, including deleted ones
	GetByID(ctx context.Context, id string) (*docsystem.Document, error)

	// UpdateHead applies a compare-and-swap write to the head.
	// Returns *domain.ConflictError when current_version no longer equals upd.ExpectedVersion,
	// and *domain.ValidationError when the document is deleted.
	UpdateHead(ctx context.Context, upd *docsystem.HeadUpdate) error

	// SetStatus changes the lifecycle flag without touching content or version
	SetStatus(ctx context.Context, id string, status docsystem.DocumentStatus) error

	// AddCollaborator adds userID to the collaborator set (no-op if present)
	AddCollaborator(ctx context.Context, id, userID string) error
}
