package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

//go:generate mockgen -source=assessment.go -destination=mocks/assessment_mock.go -package=mocks

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Assessment, error)
	Count(ctx context.Context) (int64, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := r.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// ListByUser returns the newest assessments first. A non-positive limit returns all of them.
func (r *assessmentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Assessment, error) {
	var assessments []models.Assessment

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

func (r *assessmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Assessment{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return n, nil
}
