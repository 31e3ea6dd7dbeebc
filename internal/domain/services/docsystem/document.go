package docsystem

import (
	"context"

	"scriptorium/internal/domain/models/docsystem"
)

// DocumentService is the entry point used by the surrounding application.
// Every call assumes the actor has already been authorized on the document.
type DocumentService interface {
	// CreateDocument creates the head and its initial version 1
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves the document head
	GetDocument(ctx context.Context, documentID string) (*docsystem.Document, error)

	// AddCollaborator grants joint editing (not ownership)
	AddCollaborator(ctx context.Context, documentID, userID string) (*docsystem.Document, error)

	// DeleteDocument flags the document deleted; history is kept
	DeleteDocument(ctx context.Context, documentID, actorID string) error

	// SaveContent classifies a save, snapshots it when the policy says so, and updates analytics
	SaveContent(ctx context.Context, req *SaveContentRequest) (*SaveContentResult, error)

	// SubmitDocument forces a "final submission" milestone and marks the document submitted
	SubmitDocument(ctx context.Context, documentID, actorID string) (*docsystem.DocumentVersion, error)

	// RestoreVersion re-appends an older version at the head
	RestoreVersion(ctx context.Context, documentID string, targetVersion int, actorID string) (*RestoreResult, error)

	// GetHistory returns snapshots newest first
	GetHistory(ctx context.Context, req *HistoryRequest) ([]docsystem.DocumentVersion, error)

	// GetVersion returns a single snapshot
	GetVersion(ctx context.Context, documentID string, version int) (*docsystem.DocumentVersion, error)

	// ListMilestones returns milestone snapshots newest first
	ListMilestones(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)

	// CompareVersions classifies the change between two snapshots
	CompareVersions(ctx context.Context, documentID string, fromVersion, toVersion int) (*docsystem.VersionDiff, error)

	// GetActiveEditors lists users currently editing the document and its last activity time
	GetActiveEditors(ctx context.Context, documentID string) (*docsystem.Presence, error)

	// RecordComment counts a comment by actorID on the document
	RecordComment(ctx context.Context, documentID, actorID string) error

	// GetAnalytics returns the analytics read model
	GetAnalytics(ctx context.Context, documentID string) (*docsystem.DocumentAnalytics, error)
}

// SessionService tracks writing sessions
type SessionService interface {
	// StartSession opens a session for actorID on documentID
	StartSession(ctx context.Context, documentID, actorID string) (*docsystem.WritingSession, error)

	// EndSession closes the actor's session and returns its duration in minutes
	EndSession(ctx context.Context, req *EndSessionRequest) (*EndSessionResult, error)

	// GetSession retrieves a session
	GetSession(ctx context.Context, sessionID string) (*docsystem.WritingSession, error)
}

// ImportService creates documents from uploaded files
type ImportService interface {
	// ImportDocument converts the file to text and creates a document with it as version 1
	ImportDocument(ctx context.Context, req *ImportDocumentRequest) (*docsystem.Document, error)

	// SupportedExtensions lists the file types ImportDocument accepts
	SupportedExtensions() []string
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	OwnerID       string                 `json:"-"` // Set by handler from auth context
	Title         string                 `json:"title"`
	Content       string                 `json:"content"`
	Kind          docsystem.DocumentKind `json:"kind"`
	Collaborators []string               `json:"collaborators,omitempty"`
}

// SaveContentRequest represents one save from an editor
type SaveContentRequest struct {
	DocumentID  string             `json:"-"`
	ActorID     string             `json:"-"`
	Content     string             `json:"content"`
	Title       *string            `json:"title,omitempty"`        // nil keeps the current title
	SaveType    docsystem.SaveType `json:"save_type"`              // "auto" or "manual"
	BaseVersion *int               `json:"base_version,omitempty"` // optional optimistic base
	SaveID      string             `json:"save_id,omitempty"`      // idempotency key for analytics
}

// SaveContentResult is returned from SaveContent
type SaveContentResult struct {
	VersionCreated bool                    `json:"version_created"`
	CurrentVersion int                     `json:"current_version"`
	Diff           docsystem.ChangeSummary `json:"diff"`
	ActiveEditors  []string                `json:"active_editors"`
}

// RestoreResult is returned from RestoreVersion
type RestoreResult struct {
	NewVersion int                        `json:"new_version"`
	Version    *docsystem.DocumentVersion `json:"version"`
}

// HistoryRequest pages through the version chain
type HistoryRequest struct {
	DocumentID string `json:"-"`
	Limit      int    `json:"limit,omitempty"`  // default config.DefaultHistoryLimit
	Offset     int    `json:"offset,omitempty"` // default 0
}

// EndSessionRequest closes a writing session
type EndSessionRequest struct {
	SessionID      string `json:"-"`
	ActorID        string `json:"-"`
	FinalWordCount int    `json:"final_word_count"`
	Keystrokes     int    `json:"keystrokes,omitempty"`
	PauseCount     int    `json:"pause_count,omitempty"`
	RevisionCount  int    `json:"revision_count,omitempty"`
}

// EndSessionResult is returned from EndSession
type EndSessionResult struct {
	DurationMinutes int `json:"duration_minutes"`
}

// ImportDocumentRequest carries one uploaded file
type ImportDocumentRequest struct {
	OwnerID  string
	Filename string
	Data     []byte
	Title    string // empty derives the title from Filename
	Kind     docsystem.DocumentKind
}
