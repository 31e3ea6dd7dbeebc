package docsystem

import (
	"context"

	"scriptorium/internal/domain/models/docsystem"
)

// VersionRepository stores the append-only snapshot chain.
// There is deliberately no update or delete operation.
type VersionRepository interface {
	// Insert writes a new snapshot row.
	// Returns *domain.ConflictError if (document_id, version) already exists.
	Insert(ctx context.Context, v *docsystem.DocumentVersion) error

	// Get retrieves one snapshot of a document
	Get(ctx context.Context, documentID string, version int) (*docsystem.DocumentVersion, error)

	// GetBySaveID retrieves the snapshot written by a client save id.
	// Returns *domain.NotFoundError when no snapshot carries it.
	GetBySaveID(ctx context.Context, documentID, saveID string) (*docsystem.DocumentVersion, error)

	// List returns snapshots newest first
	List(ctx context.Context, documentID string, limit, offset int) ([]docsystem.DocumentVersion, error)

	// ListMilestones returns milestone snapshots newest first
	ListMilestones(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)

	// Count returns the number of snapshots for a document
	Count(ctx context.Context, documentID string) (int, error)
}
