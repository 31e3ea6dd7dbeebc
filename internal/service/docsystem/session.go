package docsystem

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/observability"
)

// sessionService implements the SessionService interface
type sessionService struct {
	docRepo     docsysRepo.DocumentRepository
	sessionRepo docsysRepo.SessionRepository
	analytics   docsysSvc.AnalyticsAggregator
	tracker     docsysSvc.CollaborationTracker
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionService creates a new writing session service
func NewSessionService(
	docRepo docsysRepo.DocumentRepository,
	sessionRepo docsysRepo.SessionRepository,
	analytics docsysSvc.AnalyticsAggregator,
	tracker docsysSvc.CollaborationTracker,
	logger *slog.Logger,
) docsysSvc.SessionService {
	return &sessionService{
		docRepo:     docRepo,
		sessionRepo: sessionRepo,
		analytics:   analytics,
		tracker:     tracker,
		tracer:      observability.Tracer(),
		logger:      logger,
		now:         time.Now,
	}
}

// StartSession opens a session. Open sessions are never expired automatically.
func (s *sessionService) StartSession(ctx context.Context, documentID, actorID string) (session *models.WritingSession, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.StartSession",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer func() { observability.EndSpan(span, err) }()

	if actorID == "" {
		return nil, domain.NewValidation("actor id is required")
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsWritable() {
		return nil, domain.NewValidation("document %s is deleted", documentID)
	}

	session = &models.WritingSession{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     actorID,
		StartTime:  s.now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.tracker.RecordActivity(ctx, documentID, actorID); err != nil {
		s.logger.Warn("failed to record presence", "document_id", documentID, "user_id", actorID, "error", err)
	}

	s.logger.Info("session started",
		"session_id", session.ID,
		"document_id", documentID,
		"user_id", actorID,
	)

	return session, nil
}

// EndSession closes the actor's own session and returns its duration
func (s *sessionService) EndSession(ctx context.Context, req *docsysSvc.EndSessionRequest) (result *docsysSvc.EndSessionResult, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.EndSession",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)))
	defer func() { observability.EndSpan(span, err) }()

	err = validation.ValidateStruct(req,
		validation.Field(&req.SessionID, validation.Required),
		validation.Field(&req.ActorID, validation.Required),
		validation.Field(&req.FinalWordCount, validation.Min(0)),
		validation.Field(&req.Keystrokes, validation.Min(0)),
		validation.Field(&req.PauseCount, validation.Min(0)),
		validation.Field(&req.RevisionCount, validation.Min(0)),
	)
	if err != nil {
		return nil, domain.NewValidation("%v", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != req.ActorID {
		return nil, domain.NewValidation("session %s belongs to another user", req.SessionID)
	}

	minutes, err := s.analytics.CloseSession(ctx, req.SessionID, s.now(), models.ActivityCounters{
		Keystrokes:     req.Keystrokes,
		PauseCount:     req.PauseCount,
		RevisionCount:  req.RevisionCount,
		WordCountAtEnd: req.FinalWordCount,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("session.duration_minutes", minutes))
	return &docsysSvc.EndSessionResult{DurationMinutes: minutes}, nil
}

// GetSession retrieves a session
func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*models.WritingSession, error) {
	return s.sessionRepo.GetByID(ctx, sessionID)
}
