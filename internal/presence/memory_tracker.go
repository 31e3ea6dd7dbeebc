package presence

import (
	"context"
	"slices"
	"sync"
	"time"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// MemoryTracker is the single-process tracker used when no Redis is configured.
// Stale entries are swept on write at most once per idle window, so documents
// that are written but never read do not accumulate.
type MemoryTracker struct {
	mu        sync.Mutex
	editors   map[string]map[string]time.Time // documentID -> userID -> last seen
	last      map[string]time.Time
	lastSweep time.Time
	opts      options
}

// NewMemoryTracker creates an in-process presence tracker
func NewMemoryTracker(opts ...Option) *MemoryTracker {
	return &MemoryTracker{
		editors: make(map[string]map[string]time.Time),
		last:    make(map[string]time.Time),
		opts:    buildOptions(opts),
	}
}

var _ docsysSvc.CollaborationTracker = (*MemoryTracker)(nil)

// RecordActivity marks userID as active on documentID now
func (t *MemoryTracker) RecordActivity(_ context.Context, documentID, userID string) error {
	now := t.opts.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.opts.idleWindow {
		t.sweep(now)
		t.lastSweep = now
	}

	users, ok := t.editors[documentID]
	if !ok {
		users = make(map[string]time.Time)
		t.editors[documentID] = users
	}
	users[userID] = now
	t.last[documentID] = now
	return nil
}

// GetActiveEditors returns users seen within the idle window, sorted
func (t *MemoryTracker) GetActiveEditors(_ context.Context, documentID string) ([]string, error) {
	cutoff := t.opts.now().Add(-t.opts.idleWindow)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneEditors(documentID, cutoff)

	users := t.editors[documentID]
	active := make([]string, 0, len(users))
	for userID := range users {
		active = append(active, userID)
	}

	slices.Sort(active)
	return active, nil
}

// LastActivity returns the document's last activity watermark
func (t *MemoryTracker) LastActivity(_ context.Context, documentID string) (time.Time, bool, error) {
	now := t.opts.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	at, ok := t.last[documentID]
	if ok && now.Sub(at) > WatermarkRetention {
		delete(t.last, documentID)
		return time.Time{}, false, nil
	}
	return at, ok, nil
}

// sweep drops stale editors across all documents and expired watermarks.
// Callers hold t.mu.
func (t *MemoryTracker) sweep(now time.Time) {
	cutoff := now.Add(-t.opts.idleWindow)
	for documentID := range t.editors {
		t.pruneEditors(documentID, cutoff)
	}
	for documentID, at := range t.last {
		if now.Sub(at) > WatermarkRetention {
			delete(t.last, documentID)
		}
	}
}

// pruneEditors drops users last seen before cutoff. Callers hold t.mu.
func (t *MemoryTracker) pruneEditors(documentID string, cutoff time.Time) {
	users, ok := t.editors[documentID]
	if !ok {
		return
	}
	for userID, seen := range users {
		if seen.Before(cutoff) {
			delete(users, userID)
		}
	}
	if len(users) == 0 {
		delete(t.editors, documentID)
	}
}
