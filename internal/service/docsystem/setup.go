package docsystem

import (
	"log/slog"

	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/service/docsystem/converter"
)

// Services holds the document engine entry points
type Services struct {
	Documents docsysSvc.DocumentService
	Sessions  docsysSvc.SessionService
	Imports   docsysSvc.ImportService
}

// SetupServices wires the classifier, policy, version chain, presence tracker
// and analytics aggregator behind the document and session facades.
func SetupServices(
	repos *docsysRepo.Repositories,
	thresholds ThresholdSource,
	tracker docsysSvc.CollaborationTracker,
	logger *slog.Logger,
) *Services {
	classifier := NewContentAnalyzer()
	versioning := NewVersioningPolicy(thresholds)

	chain := NewVersionChain(repos.Documents, repos.Versions, repos.Tx, classifier, logger)
	analytics := NewAnalyticsAggregator(repos.Analytics, repos.Sessions, repos.Versions, repos.Tx, logger)

	documents := NewDocumentService(&Engine{
		Documents:  repos.Documents,
		Chain:      chain,
		Classifier: classifier,
		Policy:     versioning,
		Tracker:    tracker,
		Analytics:  analytics,
	}, logger)

	sessions := NewSessionService(repos.Documents, repos.Sessions, analytics, tracker, logger)

	return &Services{
		Documents: documents,
		Sessions:  sessions,
		Imports:   NewImportService(documents, converter.NewRegistry(), logger),
	}
}
