package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

//go:generate mockgen -source=document.go -destination=mocks/document_mock.go -package=mocks

// DocumentRepository reads CVs stored by the upload service.
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID, userID string) (*models.Document, error)
	Count(ctx context.Context) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// FindByID implements DocumentRepository. Documents of other users are reported as not found.
func (d *documentRepository) FindByID(ctx context.Context, id uuid.UUID, userID string) (*models.Document, error) {
	var doc models.Document
	err := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// Count implements DocumentRepository.
func (d *documentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&models.Document{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
