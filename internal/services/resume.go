package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
)

// ResumeService resolves the resume text of a request, either from an upload or from a stored CV.
type ResumeService interface {
	FromUpload(ctx context.Context, filename string, r io.Reader) (string, error)
	FromDocument(ctx context.Context, userID, cvID string) (string, error)
}

type resumeService struct {
	docRepo   repositories.DocumentRepository
	extractor ExtractorService
	store     TempStore
}

func NewResumeService(docRepo repositories.DocumentRepository, extractor ExtractorService, store TempStore) ResumeService {
	return &resumeService{
		docRepo:   docRepo,
		extractor: extractor,
		store:     store,
	}
}

func (s *resumeService) FromUpload(ctx context.Context, filename string, r io.Reader) (string, error) {
	return s.extractor.ExtractUpload(ctx, filename, r)
}

func (s *resumeService) FromDocument(ctx context.Context, userID, cvID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(cvID))
	if err != nil {
		return "", NewValidationError("cv_id", "must be a valid id")
	}

	doc, err := s.docRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrCVNotFound
		}
		return "", err
	}

	path := doc.FilePath
	if !filepath.IsAbs(path) {
		path = s.store.Path(path)
	}
	return s.extractor.ExtractFile(ctx, path)
}
