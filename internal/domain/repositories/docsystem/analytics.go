package docsystem

import (
	"context"

	"scriptorium/internal/domain/models/docsystem"
)

// AnalyticsRepository stores additive contributor and daily counters.
// Counters are only ever incremented.
type AnalyticsRepository interface {
	// ClaimEvent records that eventKey was applied to documentID.
	// Returns false if the key was already claimed, so retried deliveries are skipped.
	ClaimEvent(ctx context.Context, documentID, eventKey string) (bool, error)

	// AddContributor upserts a contributor row and adds the delta
	AddContributor(ctx context.Context, delta docsystem.ContributorDelta) error

	// AddDaily upserts a daily pattern row and adds the delta
	AddDaily(ctx context.Context, delta docsystem.DailyDelta) error

	// ListContributors returns contributor stats ordered by words contributed (desc)
	ListContributors(ctx context.Context, documentID string) ([]docsystem.ContributorStat, error)

	// ListDaily returns daily patterns ordered by date (asc)
	ListDaily(ctx context.Context, documentID string) ([]docsystem.DailyWritingPattern, error)
}
