package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQuestionsRequest_RequestedCount(t *testing.T) {
	tests := map[string]string{
		`{}`:                "",
		`{"count": null}`:   "",
		`{"count": 7}`:      "7",
		`{"count": "12"}`:   "12",
		`{"count": "lots"}`: "lots",
	}
	for body, want := range tests {
		var req GenerateQuestionsRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, req.RequestedCount(), body)
	}
}

func TestMatchRequest_Validate(t *testing.T) {
	req := MatchRequest{JobDescription: "  Go developer ", Position: " Backend "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Go developer", req.JobDescription)
	assert.Equal(t, "Backend", req.Position)

	req = MatchRequest{JobDescription: "   ", Position: "Backend"}
	field, msg := FirstValidationError(req.Validate())
	assert.Equal(t, "job_description", field)
	assert.Equal(t, "is required", msg)

	req = MatchRequest{JobDescription: "Go", Position: strings.Repeat("x", 201)}
	field, msg = FirstValidationError(req.Validate())
	assert.Equal(t, "position", field)
	assert.Equal(t, "failed max=200", msg)
}

func TestCreateAssessmentRequest_Validate(t *testing.T) {
	score := 75.0
	valid := CreateAssessmentRequest{Position: "QA", AverageScore: &score, SkillsAnalyzed: map[string]any{"Go": 75}}
	assert.NoError(t, valid.Validate())

	noScore := valid
	noScore.AverageScore = nil
	field, msg := FirstValidationError(noScore.Validate())
	assert.Equal(t, "average_score", field)
	assert.Equal(t, "is required", msg)

	tooHigh := valid
	high := 120.0
	tooHigh.AverageScore = &high
	field, _ = FirstValidationError(tooHigh.Validate())
	assert.Equal(t, "average_score", field)

	badKind := valid
	badKind.Kind = "essay"
	field, msg = FirstValidationError(badKind.Validate())
	assert.Equal(t, "kind", field)
	assert.Equal(t, "must be one of: quiz match", msg)
}

func TestSubmitAnswersRequest_Validate(t *testing.T) {
	req := SubmitAnswersRequest{}
	field, msg := FirstValidationError(req.Validate())
	assert.Equal(t, "answers", field)
	assert.Equal(t, "is required", msg)

	req.Answers = json.RawMessage(`[]`)
	assert.NoError(t, req.Validate())
}

func TestFirstValidationError_NonValidatorError(t *testing.T) {
	field, msg := FirstValidationError(assert.AnError)
	assert.Empty(t, field)
	assert.Equal(t, "invalid request", msg)
}
