package docsystem

import "time"

// ActivityCounters are reported by the editor client when a session ends.
type ActivityCounters struct {
	Keystrokes     int `json:"keystrokes" db:"keystrokes"`
	PauseCount     int `json:"pause_count" db:"pause_count"`
	RevisionCount  int `json:"revision_count" db:"revision_count"`
	WordCountAtEnd int `json:"word_count_at_end" db:"word_count_at_end"`
}

// WritingSession is one continuous editing interval by one user.
// EndTime is nil while the session is open; a session is closed at most once.
type WritingSession struct {
	ID              string           `json:"id" db:"id"`
	DocumentID      string           `json:"document_id" db:"document_id"`
	UserID          string           `json:"user_id" db:"user_id"`
	StartTime       time.Time        `json:"start_time" db:"start_time"`
	EndTime         *time.Time       `json:"end_time,omitempty" db:"end_time"`
	DurationMinutes int              `json:"duration_minutes" db:"duration_minutes"`
	Activity        ActivityCounters `json:"activity"`
}

// IsClosed reports whether the session already has an end time.
func (s *WritingSession) IsClosed() bool {
	return s.EndTime != nil
}

// DurationUntil returns whole minutes between the session start and end.
func (s *WritingSession) DurationUntil(end time.Time) int {
	return int(end.Sub(s.StartTime) / time.Minute)
}

// Presence is the advisory view of who is editing a document right now.
type Presence struct {
	DocumentID     string     `json:"document_id"`
	ActiveEditors  []string   `json:"active_editors"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}
