package docsystem

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	"scriptorium/internal/domain/repositories"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
)

// versionChain implements the VersionChain interface.
// The head row's current_version is the only compare-and-swap point; the
// unique (document_id, version) key backs it up at the snapshot level.
type versionChain struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	txManager   repositories.TransactionManager
	classifier  docsysSvc.ChangeClassifier
	logger      *slog.Logger
	now         func() time.Time
}

// NewVersionChain creates the version chain store
func NewVersionChain(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	txManager repositories.TransactionManager,
	classifier docsysSvc.ChangeClassifier,
	logger *slog.Logger,
) docsysSvc.VersionChain {
	return &versionChain{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		txManager:   txManager,
		classifier:  classifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Initialize writes the head and version 1 in one transaction
func (c *versionChain) Initialize(ctx context.Context, doc *models.Document) (*models.DocumentVersion, error) {
	doc.CurrentVersion = 1
	doc.WordCount = c.classifier.CountWords(doc.Content)

	v := &models.DocumentVersion{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		Version:       1,
		Title:         doc.Title,
		Content:       doc.Content,
		ChangeSummary: c.classifier.Classify("", doc.Content),
		AuthorID:      doc.OwnerID,
		CreatedAt:     doc.CreatedAt,
	}

	err := c.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := c.docRepo.Create(txCtx, doc); err != nil {
			return err
		}
		return c.versionRepo.Insert(txCtx, v)
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

// AppendVersion moves the head from ExpectedVersion to ExpectedVersion+1 and
// writes the matching snapshot. Both writes commit or neither does.
func (c *versionChain) AppendVersion(ctx context.Context, req *docsysSvc.AppendVersionRequest) (*models.DocumentVersion, error) {
	now := c.now().UTC()
	v := &models.DocumentVersion{
		ID:                   uuid.NewString(),
		DocumentID:           req.DocumentID,
		Version:              req.ExpectedVersion + 1,
		Title:                req.Title,
		Content:              req.Content,
		ChangeSummary:        req.Changes,
		AuthorID:             req.AuthorID,
		IsMilestone:          req.Milestone != "",
		MilestoneDescription: req.Milestone,
		SaveID:               req.SaveID,
		CreatedAt:            now,
	}

	err := c.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// The head update takes the row lock first, so a losing writer fails
		// here before it can touch document_versions.
		if err := c.docRepo.UpdateHead(txCtx, c.headUpdate(req, v.Version, now)); err != nil {
			return err
		}
		return c.versionRepo.Insert(txCtx, v)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("version appended",
		"document_id", v.DocumentID,
		"version", v.Version,
		"author_id", v.AuthorID,
		"added_words", v.ChangeSummary.AddedWords,
		"deleted_words", v.ChangeSummary.DeletedWords,
		"milestone", v.MilestoneDescription,
	)

	return v, nil
}

// UpdateContent moves the head content without creating a snapshot
func (c *versionChain) UpdateContent(ctx context.Context, req *docsysSvc.AppendVersionRequest) error {
	return c.docRepo.UpdateHead(ctx, c.headUpdate(req, req.ExpectedVersion, c.now().UTC()))
}

func (c *versionChain) headUpdate(req *docsysSvc.AppendVersionRequest, newVersion int, at time.Time) *models.HeadUpdate {
	return &models.HeadUpdate{
		DocumentID:      req.DocumentID,
		ExpectedVersion: req.ExpectedVersion,
		NewVersion:      newVersion,
		Title:           req.Title,
		Content:         req.Content,
		WordCount:       c.classifier.CountWords(req.Content),
		EditedBy:        req.AuthorID,
		EditedAt:        at,
		Status:          req.Status,
	}
}

// Restore re-appends targetVersion's content as a milestone at the head.
// The counter always moves forward, even when restoring the current version.
func (c *versionChain) Restore(ctx context.Context, documentID string, targetVersion int, actorID string) (*models.DocumentVersion, error) {
	var restored *models.DocumentVersion

	err := c.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := c.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		source, err := c.versionRepo.Get(txCtx, documentID, targetVersion)
		if err != nil {
			return err
		}

		restored, err = c.AppendVersion(txCtx, &docsysSvc.AppendVersionRequest{
			DocumentID:      documentID,
			ExpectedVersion: doc.CurrentVersion,
			Title:           source.Title,
			Content:         source.Content,
			AuthorID:        actorID,
			Changes:         c.classifier.Classify(doc.Content, source.Content),
			Milestone:       models.RestoredMilestone(targetVersion),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return restored, nil
}

// Compare classifies the change from one snapshot to another
func (c *versionChain) Compare(ctx context.Context, documentID string, fromVersion, toVersion int) (*models.VersionDiff, error) {
	from, err := c.versionRepo.Get(ctx, documentID, fromVersion)
	if err != nil {
		return nil, err
	}
	to, err := c.versionRepo.Get(ctx, documentID, toVersion)
	if err != nil {
		return nil, err
	}

	changes := c.classifier.Classify(from.Content, to.Content)
	return &models.VersionDiff{
		DocumentID:    documentID,
		FromVersion:   fromVersion,
		ToVersion:     toVersion,
		ChangeSummary: changes,
		NetWordChange: changes.AddedWords - changes.DeletedWords,
	}, nil
}

// History returns snapshots newest first
func (c *versionChain) History(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, error) {
	if limit <= 0 || offset < 0 {
		return nil, domain.NewValidation("invalid page: limit=%d offset=%d", limit, offset)
	}
	return c.versionRepo.List(ctx, documentID, limit, offset)
}

// Get returns one snapshot
func (c *versionChain) Get(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	return c.versionRepo.Get(ctx, documentID, version)
}

// FindBySaveID returns the snapshot written by an earlier delivery of saveID
func (c *versionChain) FindBySaveID(ctx context.Context, documentID, saveID string) (*models.DocumentVersion, bool, error) {
	if saveID == "" {
		return nil, false, nil
	}
	v, err := c.versionRepo.GetBySaveID(ctx, documentID, saveID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// Milestones returns milestone snapshots newest first
func (c *versionChain) Milestones(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	return c.versionRepo.ListMilestones(ctx, documentID)
}
