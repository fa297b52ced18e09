package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories/mocks"
)

func TestAssessmentService_List(t *testing.T) {
	repo := mocks.NewMockAssessmentRepository(gomock.NewController(t))
	want := []models.Assessment{{UserID: "u1", Kind: models.KindQuiz, AverageScore: 80}}
	repo.EXPECT().ListByUser(gomock.Any(), "u1", maxListedAssessments).Return(want, nil)

	got, err := NewAssessmentService(repo).List(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAssessmentService_Create(t *testing.T) {
	repo := mocks.NewMockAssessmentRepository(gomock.NewController(t))
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	got, err := NewAssessmentService(repo).Create(context.Background(), "u1", CreateAssessmentInput{
		Position:       "QA",
		AverageScore:   66.5,
		SkillsAnalyzed: map[string]any{"Testing": 66.5},
	})

	require.NoError(t, err)
	assert.Equal(t, models.KindQuiz, got.Kind)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 66.5, got.AverageScore)
	assert.JSONEq(t, `{"Testing": 66.5}`, string(got.SkillsAnalyzed))
}

func TestAssessmentService_CreateKeepsKindAndEmptySkills(t *testing.T) {
	repo := mocks.NewMockAssessmentRepository(gomock.NewController(t))
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	got, err := NewAssessmentService(repo).Create(context.Background(), "u1", CreateAssessmentInput{Kind: models.KindMatch})

	require.NoError(t, err)
	assert.Equal(t, models.KindMatch, got.Kind)
	assert.JSONEq(t, `{}`, string(got.SkillsAnalyzed))
}

func TestAssessmentService_CreateRejectsUnencodableSkills(t *testing.T) {
	repo := mocks.NewMockAssessmentRepository(gomock.NewController(t))

	_, err := NewAssessmentService(repo).Create(context.Background(), "u1", CreateAssessmentInput{
		SkillsAnalyzed: map[string]any{"bad": make(chan int)},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "skills_analyzed", vErr.Field)
}

func TestAssessmentService_CreateRepositoryError(t *testing.T) {
	repo := mocks.NewMockAssessmentRepository(gomock.NewController(t))
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := NewAssessmentService(repo).Create(context.Background(), "u1", CreateAssessmentInput{})

	assert.EqualError(t, err, "db down")
}
