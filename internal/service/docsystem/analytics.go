package docsystem

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	"scriptorium/internal/domain/repositories"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// analyticsAggregator implements the AnalyticsAggregator interface.
// All counters are commutative increments; a claimed event key guards each
// increment against double delivery.
type analyticsAggregator struct {
	analyticsRepo docsysRepo.AnalyticsRepository
	sessionRepo   docsysRepo.SessionRepository
	versionRepo   docsysRepo.VersionRepository
	txManager     repositories.TransactionManager
	logger        *slog.Logger
	now           func() time.Time
}

// NewAnalyticsAggregator creates the contributor analytics aggregator
func NewAnalyticsAggregator(
	analyticsRepo docsysRepo.AnalyticsRepository,
	sessionRepo docsysRepo.SessionRepository,
	versionRepo docsysRepo.VersionRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) docsysSvc.AnalyticsAggregator {
	return &analyticsAggregator{
		analyticsRepo: analyticsRepo,
		sessionRepo:   sessionRepo,
		versionRepo:   versionRepo,
		txManager:     txManager,
		logger:        logger,
		now:           time.Now,
	}
}

// RecordEdit adds one version-producing save to the contributor and daily counters
func (a *analyticsAggregator) RecordEdit(ctx context.Context, req *docsysSvc.RecordEditRequest) error {
	at := req.At
	if at.IsZero() {
		at = a.now()
	}
	at = at.UTC()

	return a.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if ok, err := a.claim(txCtx, req.DocumentID, req.EventKey); err != nil || !ok {
			return err
		}

		err := a.analyticsRepo.AddContributor(txCtx, models.ContributorDelta{
			DocumentID: req.DocumentID,
			UserID:     req.UserID,
			Words:      req.Changes.AddedWords,
			Edits:      1,
			At:         at,
		})
		if err != nil {
			return err
		}

		daily := models.DailyDelta{
			DocumentID: req.DocumentID,
			Date:       models.DateKey(at),
			Words:      req.Changes.AddedWords,
			Revisions:  1,
		}
		if req.SessionMinutes != nil {
			daily.Minutes = *req.SessionMinutes
		}
		return a.analyticsRepo.AddDaily(txCtx, daily)
	})
}

// RecordComment increments the commenter's comment count
func (a *analyticsAggregator) RecordComment(ctx context.Context, documentID, userID string) error {
	return a.analyticsRepo.AddContributor(ctx, models.ContributorDelta{
		DocumentID: documentID,
		UserID:     userID,
		Comments:   1,
		At:         a.now().UTC(),
	})
}

// CloseSession ends the session and adds its whole minutes to the day it ended on
func (a *analyticsAggregator) CloseSession(ctx context.Context, sessionID string, end time.Time, activity models.ActivityCounters) (int, error) {
	end = end.UTC()
	var minutes int
	var documentID string

	err := a.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		session, err := a.sessionRepo.GetByID(txCtx, sessionID)
		if err != nil {
			return err
		}
		if session.IsClosed() {
			return &domain.AlreadyClosedError{SessionID: sessionID}
		}
		if end.Before(session.StartTime) {
			return domain.NewValidation("session %s cannot end before it started", sessionID)
		}

		documentID = session.DocumentID
		minutes = session.DurationUntil(end)

		// Close is conditional on end_time IS NULL, so a concurrent close loses here
		if err := a.sessionRepo.Close(txCtx, sessionID, end, minutes, activity); err != nil {
			return err
		}

		if ok, err := a.claim(txCtx, session.DocumentID, "session:"+sessionID); err != nil || !ok {
			return err
		}
		return a.analyticsRepo.AddDaily(txCtx, models.DailyDelta{
			DocumentID: session.DocumentID,
			Date:       models.DateKey(end),
			Minutes:    minutes,
		})
	})
	if err != nil {
		return 0, err
	}

	a.logger.Info("session closed",
		"session_id", sessionID,
		"document_id", documentID,
		"duration_minutes", minutes,
	)

	return minutes, nil
}

// GetAnalytics reads the four analytics sources concurrently
func (a *analyticsAggregator) GetAnalytics(ctx context.Context, documentID string) (*models.DocumentAnalytics, error) {
	var (
		versionCount int
		totals       *models.SessionTotals
		contributors []models.ContributorStat
		daily        []models.DailyWritingPattern
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		versionCount, err = a.versionRepo.Count(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = a.sessionRepo.Totals(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		contributors, err = a.analyticsRepo.ListContributors(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = a.analyticsRepo.ListDaily(gctx, documentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.DocumentAnalytics{
		DocumentID:       documentID,
		VersionCount:     versionCount,
		SessionCount:     totals.SessionCount,
		TotalWritingTime: totals.TotalMinutes,
		ContributorStats: contributors,
		DailyPatterns:    daily,
	}
	if totals.ClosedCount > 0 {
		result.AverageSessionLength = float64(totals.TotalMinutes) / float64(totals.ClosedCount)
	}

	return result, nil
}

// claim reports whether the event should be applied. An empty key is always applied.
func (a *analyticsAggregator) claim(ctx context.Context, documentID, eventKey string) (bool, error) {
	if eventKey == "" {
		return true, nil
	}
	ok, err := a.analyticsRepo.ClaimEvent(ctx, documentID, eventKey)
	if err != nil {
		return false, err
	}
	if !ok {
		a.logger.Debug("analytics event already applied", "document_id", documentID, "event_key", eventKey)
	}
	return ok, nil
}
