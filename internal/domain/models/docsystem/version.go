package docsystem

import (
	"fmt"
	"time"
)

// SaveType is the caller's hint about how a save was triggered.
type SaveType string

const (
	SaveTypeAuto   SaveType = "auto"
	SaveTypeManual SaveType = "manual"
)

// ChangeSummary is the output of the change classifier.
// Counts are length deltas, not an edit script: a save that adds and removes
// the same number of words reports zero for both.
type ChangeSummary struct {
	AddedWords   int `json:"added_words" db:"added_words"`
	DeletedWords int `json:"deleted_words" db:"deleted_words"`
	AddedChars   int `json:"added_chars" db:"added_chars"`
	DeletedChars int `json:"deleted_chars" db:"deleted_chars"`
}

// IsZero reports whether the classifier saw no change in length.
func (c ChangeSummary) IsZero() bool {
	return c == ChangeSummary{}
}

// Milestone descriptions registered by forced snapshots.
const (
	MilestoneFinalSubmission = "Final submission for grading"
	milestoneRestoredFormat  = "Restored from version %d"
)

// RestoredMilestone describes a snapshot created by restoring an older version.
func RestoredMilestone(version int) string {
	return fmt.Sprintf(milestoneRestoredFormat, version)
}

// DocumentVersion is an immutable snapshot. Rows are only ever inserted.
type DocumentVersion struct {
	ID                   string        `json:"id" db:"id"`
	DocumentID           string        `json:"document_id" db:"document_id"`
	Version              int           `json:"version" db:"version"`
	Title                string        `json:"title" db:"title"`
	Content              string        `json:"content,omitempty" db:"content"`
	ChangeSummary        ChangeSummary `json:"change_summary"`
	AuthorID             string        `json:"author_id" db:"author_id"`
	IsMilestone          bool          `json:"is_milestone" db:"is_milestone"`
	MilestoneDescription string        `json:"milestone_description,omitempty" db:"milestone_description"`
	SaveID               string        `json:"save_id,omitempty" db:"save_id"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
}

// VersionDiff is the result of comparing two snapshots of the same document.
type VersionDiff struct {
	DocumentID    string `json:"document_id"`
	FromVersion   int    `json:"from_version"`
	ToVersion     int    `json:"to_version"`
	ChangeSummary
	NetWordChange int `json:"net_word_change"`
}
