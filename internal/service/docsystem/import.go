package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/service/docsystem/converter"
)

// importService implements the ImportService interface
type importService struct {
	documents  docsysSvc.DocumentService
	converters *converter.Registry
	logger     *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(documents docsysSvc.DocumentService, converters *converter.Registry, logger *slog.Logger) docsysSvc.ImportService {
	return &importService{
		documents:  documents,
		converters: converters,
		logger:     logger,
	}
}

// ImportDocument converts the upload and creates a document owned by req.OwnerID
func (s *importService) ImportDocument(ctx context.Context, req *docsysSvc.ImportDocumentRequest) (*models.Document, error) {
	name := filepath.Base(req.Filename)
	if req.Filename == "" || name == "." || name == "/" {
		return nil, domain.NewValidation("filename is required")
	}

	content, err := s.converters.Convert(ctx, name, req.Data)
	if err != nil {
		if errors.Is(err, converter.ErrUnsupportedType) {
			return nil, domain.NewValidation("%v (supported: %s)", err, strings.Join(s.converters.SupportedExtensions(), ", "))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	}

	doc, err := s.documents.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		OwnerID: req.OwnerID,
		Title:   title,
		Content: content,
		Kind:    req.Kind,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document imported",
		"id", doc.ID,
		"filename", name,
		"bytes", len(req.Data),
	)
	return doc, nil
}

// SupportedExtensions lists the file types ImportDocument accepts
func (s *importService) SupportedExtensions() []string {
	return s.converters.SupportedExtensions()
}
