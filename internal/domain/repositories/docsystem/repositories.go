package docsystem

import "scriptorium/internal/domain/repositories"

// Repositories groups the storage ports of one backend
type Repositories struct {
	Documents DocumentRepository
	Versions  VersionRepository
	Sessions  SessionRepository
	Analytics AnalyticsRepository
	Tx        repositories.TransactionManager
}
