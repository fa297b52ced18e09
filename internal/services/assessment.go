package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
)

const maxListedAssessments = 100

type CreateAssessmentInput struct {
	Kind           models.AssessmentKind
	Position       string
	AverageScore   float64
	SkillsAnalyzed map[string]any
}

type AssessmentService interface {
	List(ctx context.Context, userID string) ([]models.Assessment, error)
	Create(ctx context.Context, userID string, in CreateAssessmentInput) (*models.Assessment, error)
}

type assessmentService struct {
	repo repositories.AssessmentRepository
}

func NewAssessmentService(repo repositories.AssessmentRepository) AssessmentService {
	return &assessmentService{repo: repo}
}

func (s *assessmentService) List(ctx context.Context, userID string) ([]models.Assessment, error) {
	return s.repo.ListByUser(ctx, userID, maxListedAssessments)
}

func (s *assessmentService) Create(ctx context.Context, userID string, in CreateAssessmentInput) (*models.Assessment, error) {
	kind := in.Kind
	if kind == "" {
		kind = models.KindQuiz
	}

	assessment := &models.Assessment{
		UserID:       userID,
		Kind:         kind,
		Position:     in.Position,
		AverageScore: in.AverageScore,
	}
	if err := setSkillsAnalyzed(assessment, in.SkillsAnalyzed); err != nil {
		return nil, NewValidationError("skills_analyzed", "must be a JSON object")
	}

	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func setSkillsAnalyzed(a *models.Assessment, skills map[string]any) error {
	if skills == nil {
		skills = map[string]any{}
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("failed to encode skills_analyzed: %w", err)
	}
	a.SkillsAnalyzed = datatypes.JSON(data)
	return nil
}
