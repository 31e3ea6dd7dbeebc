package docsystem

import (
	"context"
	"time"

	"scriptorium/internal/domain/models/docsystem"
)

// SessionRepository defines data access operations for writing sessions
type SessionRepository interface {
	// Create inserts an open session
	Create(ctx context.Context, s *docsystem.WritingSession) error

	// GetByID retrieves a session
	GetByID(ctx context.Context, id string) (*docsystem.WritingSession, error)

	// Close sets end time, duration and final counters on an open session.
	// Returns *domain.AlreadyClosedError if the session already has an end time.
	Close(ctx context.Context, id string, end time.Time, durationMinutes int, activity docsystem.ActivityCounters) error

	// Totals counts sessions and sums closed-session minutes for a document
	Totals(ctx context.Context, documentID string) (*docsystem.SessionTotals, error)
}
