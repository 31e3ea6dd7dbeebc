package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scriptorium/internal/config"
	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/observability"
)

// Engine bundles the components behind the document facade
type Engine struct {
	Documents  docsysRepo.DocumentRepository
	Chain      docsysSvc.VersionChain
	Classifier docsysSvc.ChangeClassifier
	Policy     docsysSvc.VersioningPolicy
	Tracker    docsysSvc.CollaborationTracker
	Analytics  docsysSvc.AnalyticsAggregator
}

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    docsysRepo.DocumentRepository
	chain      docsysSvc.VersionChain
	classifier docsysSvc.ChangeClassifier
	policy     docsysSvc.VersioningPolicy
	tracker    docsysSvc.CollaborationTracker
	analytics  docsysSvc.AnalyticsAggregator
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// NewDocumentService creates a new document service
func NewDocumentService(engine *Engine, logger *slog.Logger) docsysSvc.DocumentService {
	return &documentService{
		docRepo:    engine.Documents,
		chain:      engine.Chain,
		classifier: engine.Classifier,
		policy:     engine.Policy,
		tracker:    engine.Tracker,
		analytics:  engine.Analytics,
		tracer:     observability.Tracer(),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateDocument creates the head and version 1
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (doc *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.CreateDocument")
	defer func() { observability.EndSpan(span, err) }()

	req.Title = strings.TrimSpace(req.Title)
	if req.Kind == "" {
		req.Kind = models.DocumentKindDraft
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now().UTC()
	doc = &models.Document{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		Collaborators: uniqueCollaborators(req.OwnerID, req.Collaborators),
		Kind:          req.Kind,
		Status:        models.DocumentStatusActive,
		Title:         req.Title,
		Content:       req.Content,
		LastEditedBy:  req.OwnerID,
		LastEditedAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	v, err := s.chain.Initialize(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.recordEdit(ctx, doc.ID, doc.OwnerID, v.ChangeSummary, "create:"+doc.ID)
	s.recordActivity(ctx, doc.ID, doc.OwnerID)

	s.logger.Info("document created",
		"id", doc.ID,
		"owner_id", doc.OwnerID,
		"kind", doc.Kind,
		"word_count", doc.WordCount,
	)

	return doc, nil
}

// GetDocument retrieves the document head
func (s *documentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, documentID)
}

// AddCollaborator grants joint editing rights
func (s *documentService) AddCollaborator(ctx context.Context, documentID, userID string) (*models.Document, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidation("collaborator id is required")
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if userID == doc.OwnerID {
		return nil, domain.NewValidation("owner cannot be added as a collaborator")
	}
	if doc.IsCollaborator(userID) {
		return doc, nil
	}
	if len(doc.Collaborators) >= config.MaxCollaborators {
		return nil, domain.NewValidation("document already has %d collaborators", config.MaxCollaborators)
	}

	if err := s.docRepo.AddCollaborator(ctx, documentID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("collaborator added", "document_id", documentID, "user_id", userID)
	return s.docRepo.GetByID(ctx, documentID)
}

// DeleteDocument flags the document deleted; its history stays
func (s *documentService) DeleteDocument(ctx context.Context, documentID, actorID string) error {
	if err := s.docRepo.SetStatus(ctx, documentID, models.DocumentStatusDeleted); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", documentID, "actor_id", actorID)
	return nil
}

// SaveContent classifies the save against the current head and either
// appends a snapshot or moves the head content in place.
func (s *documentService) SaveContent(ctx context.Context, req *docsysSvc.SaveContentRequest) (result *docsysSvc.SaveContentResult, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.SaveContent",
		trace.WithAttributes(
			attribute.String("document.id", req.DocumentID),
			attribute.String("save.type", string(req.SaveType)),
		))
	defer func() { observability.EndSpan(span, err) }()

	if req.SaveType == "" {
		req.SaveType = models.SaveTypeAuto
	}
	if err := s.validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.writableDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	// A redelivered save that already produced a snapshot is answered from it
	if prior, ok, err := s.chain.FindBySaveID(ctx, doc.ID, req.SaveID); err != nil {
		return nil, err
	} else if ok {
		return s.replaySave(ctx, req, prior), nil
	}

	if req.BaseVersion != nil && *req.BaseVersion != doc.CurrentVersion {
		return nil, domain.NewVersionConflict(doc.ID, *req.BaseVersion, doc.CurrentVersion)
	}

	title := doc.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}

	changes := s.classifier.Classify(doc.Content, req.Content)
	thresholds := s.policy.ThresholdsFor(doc.Kind)
	snapshot := s.policy.ShouldSnapshot(changes, req.SaveType, thresholds)

	appendReq := &docsysSvc.AppendVersionRequest{
		DocumentID:      doc.ID,
		ExpectedVersion: doc.CurrentVersion,
		Title:           title,
		Content:         req.Content,
		AuthorID:        req.ActorID,
		Changes:         changes,
		SaveID:          req.SaveID,
	}

	result = &docsysSvc.SaveContentResult{
		VersionCreated: snapshot,
		CurrentVersion: doc.CurrentVersion,
		Diff:           changes,
	}

	if snapshot {
		v, err := s.chain.AppendVersion(ctx, appendReq)
		if err != nil {
			return nil, err
		}
		result.CurrentVersion = v.Version

		eventKey := ""
		if req.SaveID != "" {
			eventKey = "save:" + req.SaveID
		}
		s.recordEdit(ctx, doc.ID, req.ActorID, changes, eventKey)
	} else if err := s.chain.UpdateContent(ctx, appendReq); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("save.version_created", snapshot),
		attribute.Int("document.version", result.CurrentVersion),
	)

	s.recordActivity(ctx, doc.ID, req.ActorID)
	result.ActiveEditors = s.activeEditors(ctx, doc.ID)

	s.logger.Debug("content saved",
		"document_id", doc.ID,
		"actor_id", req.ActorID,
		"save_type", req.SaveType,
		"version_created", snapshot,
		"current_version", result.CurrentVersion,
		"added_words", changes.AddedWords,
		"deleted_words", changes.DeletedWords,
	)

	return result, nil
}

// replaySave answers a retried save from the snapshot its first delivery wrote.
// Analytics are re-applied under the same event key, which the ledger absorbs
// unless the first attempt failed to record them.
func (s *documentService) replaySave(ctx context.Context, req *docsysSvc.SaveContentRequest, prior *models.DocumentVersion) *docsysSvc.SaveContentResult {
	s.recordEdit(ctx, prior.DocumentID, prior.AuthorID, prior.ChangeSummary, "save:"+req.SaveID)
	s.recordActivity(ctx, prior.DocumentID, req.ActorID)

	s.logger.Info("save replayed",
		"document_id", prior.DocumentID,
		"save_id", req.SaveID,
		"version", prior.Version,
	)

	return &docsysSvc.SaveContentResult{
		VersionCreated: true,
		CurrentVersion: prior.Version,
		Diff:           prior.ChangeSummary,
		ActiveEditors:  s.activeEditors(ctx, prior.DocumentID),
	}
}

// SubmitDocument forces a final submission milestone and marks the document submitted
func (s *documentService) SubmitDocument(ctx context.Context, documentID, actorID string) (v *models.DocumentVersion, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.SubmitDocument",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer func() { observability.EndSpan(span, err) }()

	doc, err := s.writableDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	v, err = s.chain.AppendVersion(ctx, &docsysSvc.AppendVersionRequest{
		DocumentID:      doc.ID,
		ExpectedVersion: doc.CurrentVersion,
		Title:           doc.Title,
		Content:         doc.Content,
		AuthorID:        actorID,
		Milestone:       models.MilestoneFinalSubmission,
		Status:          models.DocumentStatusSubmitted,
	})
	if err != nil {
		return nil, err
	}

	s.recordEdit(ctx, doc.ID, actorID, v.ChangeSummary, "")
	s.recordActivity(ctx, doc.ID, actorID)

	s.logger.Info("document submitted", "document_id", doc.ID, "version", v.Version, "actor_id", actorID)
	return v, nil
}

// RestoreVersion re-appends targetVersion at the head as a milestone
func (s *documentService) RestoreVersion(ctx context.Context, documentID string, targetVersion int, actorID string) (result *docsysSvc.RestoreResult, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.RestoreVersion",
		trace.WithAttributes(
			attribute.String("document.id", documentID),
			attribute.Int("restore.target", targetVersion),
		))
	defer func() { observability.EndSpan(span, err) }()

	if targetVersion < 1 {
		return nil, domain.NewValidation("target version must be at least 1")
	}
	if _, err := s.writableDocument(ctx, documentID); err != nil {
		return nil, err
	}

	v, err := s.chain.Restore(ctx, documentID, targetVersion, actorID)
	if err != nil {
		return nil, err
	}

	s.recordEdit(ctx, documentID, actorID, v.ChangeSummary, "")
	s.recordActivity(ctx, documentID, actorID)

	s.logger.Info("version restored",
		"document_id", documentID,
		"target_version", targetVersion,
		"new_version", v.Version,
		"actor_id", actorID,
	)

	return &docsysSvc.RestoreResult{NewVersion: v.Version, Version: v}, nil
}

// GetHistory returns one page of snapshots, newest first
func (s *documentService) GetHistory(ctx context.Context, req *docsysSvc.HistoryRequest) ([]models.DocumentVersion, error) {
	if req.Limit == 0 {
		req.Limit = config.DefaultHistoryLimit
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Limit, validation.Min(1), validation.Max(config.MaxHistoryLimit)),
		validation.Field(&req.Offset, validation.Min(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.docRepo.GetByID(ctx, req.DocumentID); err != nil {
		return nil, err
	}
	return s.chain.History(ctx, req.DocumentID, req.Limit, req.Offset)
}

// GetVersion returns one snapshot
func (s *documentService) GetVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	if version < 1 {
		return nil, domain.NewValidation("version must be at least 1")
	}
	return s.chain.Get(ctx, documentID, version)
}

// ListMilestones returns milestone snapshots newest first
func (s *documentService) ListMilestones(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.chain.Milestones(ctx, documentID)
}

// CompareVersions classifies the change between two snapshots
func (s *documentService) CompareVersions(ctx context.Context, documentID string, fromVersion, toVersion int) (diff *models.VersionDiff, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.CompareVersions")
	defer func() { observability.EndSpan(span, err) }()

	if fromVersion < 1 || toVersion < 1 {
		return nil, domain.NewValidation("versions must be at least 1")
	}
	return s.chain.Compare(ctx, documentID, fromVersion, toVersion)
}

// GetActiveEditors lists users currently editing the document and its last activity time
func (s *documentService) GetActiveEditors(ctx context.Context, documentID string) (*models.Presence, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	editors, err := s.tracker.GetActiveEditors(ctx, documentID)
	if err != nil {
		return nil, err
	}
	presence := &models.Presence{DocumentID: documentID, ActiveEditors: editors}

	at, ok, err := s.tracker.LastActivity(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if ok {
		presence.LastActivityAt = &at
	}
	return presence, nil
}

// RecordComment counts a comment by actorID
func (s *documentService) RecordComment(ctx context.Context, documentID, actorID string) error {
	if actorID == "" {
		return domain.NewValidation("actor id is required")
	}
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return err
	}
	return s.analytics.RecordComment(ctx, documentID, actorID)
}

// GetAnalytics returns the analytics read model
func (s *documentService) GetAnalytics(ctx context.Context, documentID string) (analytics *models.DocumentAnalytics, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.GetAnalytics")
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.analytics.GetAnalytics(ctx, documentID)
}

// writableDocument loads the head and rejects deleted documents
func (s *documentService) writableDocument(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsWritable() {
		return nil, domain.NewValidation("document %s is deleted", documentID)
	}
	return doc, nil
}

// recordEdit folds a committed snapshot into analytics.
// The snapshot is already durable, so failures are logged and not returned.
func (s *documentService) recordEdit(ctx context.Context, documentID, userID string, changes models.ChangeSummary, eventKey string) {
	err := s.analytics.RecordEdit(ctx, &docsysSvc.RecordEditRequest{
		DocumentID: documentID,
		UserID:     userID,
		Changes:    changes,
		EventKey:   eventKey,
		At:         s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to record edit analytics",
			"document_id", documentID,
			"user_id", userID,
			"error", err,
		)
	}
}

func (s *documentService) recordActivity(ctx context.Context, documentID, userID string) {
	if err := s.tracker.RecordActivity(ctx, documentID, userID); err != nil {
		s.logger.Warn("failed to record presence", "document_id", documentID, "user_id", userID, "error", err)
	}
}

func (s *documentService) activeEditors(ctx context.Context, documentID string) []string {
	editors, err := s.tracker.GetActiveEditors(ctx, documentID)
	if err != nil {
		s.logger.Warn("failed to list active editors", "document_id", documentID, "error", err)
		return []string{}
	}
	return editors
}

// validateCreateRequest validates a document creation request
func (s *documentService) validateCreateRequest(req *docsysSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, config.MaxDocumentTitleLength)),
		validation.Field(&req.Content, validation.Length(0, config.MaxDocumentContentBytes)),
		validation.Field(&req.Kind, validation.In(models.DocumentKindDraft, models.DocumentKindSubmission)),
		validation.Field(&req.Collaborators,
			validation.Length(0, config.MaxCollaborators),
			validation.Each(validation.Required),
		),
	)
}

// validateSaveRequest validates one editor save
func (s *documentService) validateSaveRequest(req *docsysSvc.SaveContentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.ActorID, validation.Required),
		validation.Field(&req.Content, validation.Length(0, config.MaxDocumentContentBytes)),
		validation.Field(&req.SaveType, validation.In(models.SaveTypeAuto, models.SaveTypeManual)),
		validation.Field(&req.BaseVersion, validation.NilOrNotEmpty, validation.Min(1)),
	)
	if err != nil {
		return err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len([]rune(title)) > config.MaxDocumentTitleLength {
			return errors.New("title: must be between 1 and 255 characters")
		}
	}
	return nil
}

// uniqueCollaborators drops blanks, duplicates and the owner
func uniqueCollaborators(ownerID string, ids []string) []string {
	seen := map[string]bool{ownerID: true}
	out := []string{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
