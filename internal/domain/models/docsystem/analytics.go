package docsystem

import "time"

// DateLayout is the calendar-date key used for daily writing patterns (UTC).
const DateLayout = "2006-01-02"

// ContributorStat holds cumulative, non-decreasing counters for one user on one document.
type ContributorStat struct {
	DocumentID       string    `json:"document_id" db:"document_id"`
	UserID           string    `json:"user_id" db:"user_id"`
	WordsContributed int       `json:"words_contributed" db:"words_contributed"`
	EditsCount       int       `json:"edits_count" db:"edits_count"`
	CommentsCount    int       `json:"comments_count" db:"comments_count"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// DailyWritingPattern aggregates one calendar day of activity on a document.
type DailyWritingPattern struct {
	DocumentID       string `json:"document_id" db:"document_id"`
	Date             string `json:"date" db:"date"` // DateLayout
	WordsWritten     int    `json:"words_written" db:"words_written"`
	TimeSpentMinutes int    `json:"time_spent_minutes" db:"time_spent_minutes"`
	RevisionsCount   int    `json:"revisions_count" db:"revisions_count"`
}

// ContributorDelta is an additive change to a contributor stat row.
type ContributorDelta struct {
	DocumentID string
	UserID     string
	Words      int
	Edits      int
	Comments   int
	At         time.Time
}

// DailyDelta is an additive change to a daily pattern row.
type DailyDelta struct {
	DocumentID string
	Date       string
	Words      int
	Minutes    int
	Revisions  int
}

// SessionTotals summarises the sessions recorded for a document.
type SessionTotals struct {
	SessionCount int `json:"session_count"`
	ClosedCount  int `json:"closed_count"`
	TotalMinutes int `json:"total_minutes"`
}

// DocumentAnalytics is the read model returned by GetAnalytics.
type DocumentAnalytics struct {
	DocumentID           string                `json:"document_id"`
	VersionCount         int                   `json:"version_count"`
	SessionCount         int                   `json:"session_count"`
	TotalWritingTime     int                   `json:"total_writing_time"`     // minutes, closed sessions only
	AverageSessionLength float64               `json:"average_session_length"` // minutes per closed session
	ContributorStats     []ContributorStat     `json:"contributor_stats"`
	DailyPatterns        []DailyWritingPattern `json:"daily_patterns"`
}

// DateKey formats t as a daily pattern key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
