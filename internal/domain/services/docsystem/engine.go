package docsystem

import (
	"context"
	"time"

	"scriptorium/internal/domain/models/docsystem"
)

// ChangeClassifier computes length-delta change summaries between two texts
type ChangeClassifier interface {
	// Classify returns word and character deltas between old and new text
	Classify(oldText, newText string) docsystem.ChangeSummary

	// CountWords counts whitespace-separated words
	CountWords(text string) int
}

// VersioningPolicy decides whether a save materializes a snapshot
type VersioningPolicy interface {
	// ShouldSnapshot applies the snapshot rule to one classified save
	ShouldSnapshot(changes docsystem.ChangeSummary, hint docsystem.SaveType, thresholds docsystem.SnapshotThresholds) bool

	// ThresholdsFor returns the configured thresholds for a document kind
	ThresholdsFor(kind docsystem.DocumentKind) docsystem.SnapshotThresholds
}

// VersionChain owns the append-only snapshot sequence of each document
type VersionChain interface {
	// Initialize writes a new document head together with its version 1
	Initialize(ctx context.Context, doc *docsystem.Document) (*docsystem.DocumentVersion, error)

	// AppendVersion writes version ExpectedVersion+1 and moves the head in one transaction.
	// Returns *domain.ConflictError if another append won the race.
	AppendVersion(ctx context.Context, req *AppendVersionRequest) (*docsystem.DocumentVersion, error)

	// UpdateContent moves the head content without creating a snapshot.
	// Uses the same optimistic check as AppendVersion.
	UpdateContent(ctx context.Context, req *AppendVersionRequest) error

	// Restore re-appends targetVersion's content as a new milestone at the head
	Restore(ctx context.Context, documentID string, targetVersion int, actorID string) (*docsystem.DocumentVersion, error)

	// Compare classifies the change between two snapshots of one document
	Compare(ctx context.Context, documentID string, fromVersion, toVersion int) (*docsystem.VersionDiff, error)

	// History returns snapshots newest first
	History(ctx context.Context, documentID string, limit, offset int) ([]docsystem.DocumentVersion, error)

	// Get returns a single snapshot
	Get(ctx context.Context, documentID string, version int) (*docsystem.DocumentVersion, error)

	// FindBySaveID returns the snapshot an earlier delivery of saveID wrote; ok is false if none
	FindBySaveID(ctx context.Context, documentID, saveID string) (v *docsystem.DocumentVersion, ok bool, err error)

	// Milestones returns milestone snapshots newest first
	Milestones(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)
}

// CollaborationTracker records who is currently editing a document.
// It is observational only and never used as a lock.
type CollaborationTracker interface {
	// RecordActivity marks userID as active on documentID now (idempotent)
	RecordActivity(ctx context.Context, documentID, userID string) error

	// GetActiveEditors returns users seen within the idle window, sorted
	GetActiveEditors(ctx context.Context, documentID string) ([]string, error)

	// LastActivity returns the document's last activity watermark; ok is false if never seen
	LastActivity(ctx context.Context, documentID string) (at time.Time, ok bool, err error)
}

// AnalyticsAggregator maintains additive per-contributor and per-day statistics
type AnalyticsAggregator interface {
	// RecordEdit folds one version-producing save into the counters
	RecordEdit(ctx context.Context, req *RecordEditRequest) error

	// RecordComment increments the commenter's comment count
	RecordComment(ctx context.Context, documentID, userID string) error

	// CloseSession ends a writing session and folds its duration into the daily pattern.
	// Returns *domain.AlreadyClosedError on a second close.
	CloseSession(ctx context.Context, sessionID string, end time.Time, activity docsystem.ActivityCounters) (int, error)

	// GetAnalytics assembles the analytics read model for a document
	GetAnalytics(ctx context.Context, documentID string) (*docsystem.DocumentAnalytics, error)
}

// AppendVersionRequest describes one write to a document head
type AppendVersionRequest struct {
	DocumentID      string
	ExpectedVersion int
	Title           string
	Content         string
	AuthorID        string
	Changes         docsystem.ChangeSummary
	Milestone       string                   // non-empty registers a milestone
	SaveID          string                   // client idempotency key stored on the snapshot
	Status          docsystem.DocumentStatus // empty keeps the current status
}

// RecordEditRequest is one version-producing save as seen by analytics
type RecordEditRequest struct {
	DocumentID     string
	UserID         string
	Changes        docsystem.ChangeSummary
	SessionMinutes *int      // added to the day's time spent when set
	EventKey       string    // de-duplication key; empty disables de-duplication
	At             time.Time // zero means now
}

// ContentConverter turns an uploaded file into document text
type ContentConverter interface {
	// Convert transforms the raw file bytes
	Convert(ctx context.Context, input []byte) (string, error)

	// SupportedExtensions lists handled file extensions, with leading dot
	SupportedExtensions() []string

	// Name identifies the converter in logs
	Name() string
}
