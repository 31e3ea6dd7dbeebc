package docsystem

import (
	"slices"
	"time"
)

// DocumentKind selects the snapshot thresholds applied to a document.
type DocumentKind string

const (
	DocumentKindDraft      DocumentKind = "draft"
	DocumentKindSubmission DocumentKind = "submission"
)

// DocumentStatus is a lifecycle flag. History is never removed, even for deleted documents.
type DocumentStatus string

const (
	DocumentStatusActive    DocumentStatus = "active"
	DocumentStatusSubmitted DocumentStatus = "submitted"
	DocumentStatusDeleted   DocumentStatus = "deleted"
)

// Document is the mutable head of a version chain.
type Document struct {
	ID             string         `json:"id" db:"id"`
	OwnerID        string         `json:"owner_id" db:"owner_id"`
	Collaborators  []string       `json:"collaborators" db:"collaborators"`
	Kind           DocumentKind   `json:"kind" db:"kind"`
	Status         DocumentStatus `json:"status" db:"status"`
	Title          string         `json:"title" db:"title"`
	Content        string         `json:"content" db:"content"`
	WordCount      int            `json:"word_count" db:"word_count"`
	CurrentVersion int            `json:"current_version" db:"current_version"`
	LastEditedBy   string         `json:"last_edited_by" db:"last_edited_by"`
	LastEditedAt   time.Time      `json:"last_edited_at" db:"last_edited_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// IsCollaborator reports whether userID may edit without owning the document.
func (d *Document) IsCollaborator(userID string) bool {
	return slices.Contains(d.Collaborators, userID)
}

// IsWritable reports whether saves are still accepted.
func (d *Document) IsWritable() bool {
	return d.Status != DocumentStatusDeleted
}

// HeadUpdate is the compare-and-swap write applied to a document head.
// It succeeds only while the stored current_version equals ExpectedVersion.
type HeadUpdate struct {
	DocumentID      string
	ExpectedVersion int
	NewVersion      int // equal to ExpectedVersion for content-only autosaves
	Title           string
	Content         string
	WordCount       int
	EditedBy        string
	EditedAt        time.Time
	Status          DocumentStatus // empty keeps the current status
}
