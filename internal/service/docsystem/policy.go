package docsystem

import (
	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// ThresholdSource resolves snapshot thresholds for a document kind
type ThresholdSource interface {
	Thresholds(kind models.DocumentKind) models.SnapshotThresholds
}

type versioningPolicy struct {
	thresholds ThresholdSource
}

// NewVersioningPolicy creates the snapshot policy over a threshold source
func NewVersioningPolicy(thresholds ThresholdSource) docsysSvc.VersioningPolicy {
	return &versioningPolicy{thresholds: thresholds}
}

// ShouldSnapshot returns true for manual saves and for autosaves whose word
// delta (either direction) or added characters exceed the thresholds.
// Deleted characters alone never trigger a snapshot.
func (p *versioningPolicy) ShouldSnapshot(changes models.ChangeSummary, hint models.SaveType, t models.SnapshotThresholds) bool {
	if hint == models.SaveTypeManual {
		return true
	}
	return changes.AddedWords > t.Words ||
		changes.DeletedWords > t.Words ||
		abs(changes.AddedChars) > t.Chars
}

// ThresholdsFor returns the configured thresholds for kind
func (p *versioningPolicy) ThresholdsFor(kind models.DocumentKind) models.SnapshotThresholds {
	return p.thresholds.Thresholds(kind)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
