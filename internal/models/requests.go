package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// GenerateQuestionsRequest is the JSON form of a question generation request.
// Count is kept raw because clients send it both as a number and as a string.
type GenerateQuestionsRequest struct {
	CVID   string          `json:"cv_id"`
	CVText string          `json:"cv_text"`
	Count  json.RawMessage `json:"count"`
}

// RequestedCount returns the count as text, or "" when it was not sent.
func (r *GenerateQuestionsRequest) RequestedCount() string {
	raw := strings.TrimSpace(string(r.Count))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Count, &s); err == nil {
		return s
	}
	return raw
}

type SubmitAnswersRequest struct {
	Answers  json.RawMessage `json:"answers" validate:"required"`
	Position string          `json:"position" validate:"max=200"`
}

func (r *SubmitAnswersRequest) Validate() error {
	return validate.Struct(r)
}

type MatchRequest struct {
	ResumeText     string `json:"resume_text" form:"resume_text"`
	CVID           string `json:"cv_id" form:"cv_id"`
	JobDescription string `json:"job_description" form:"job_description" validate:"required"`
	Position       string `json:"position" form:"position" validate:"required,max=200"`
}

func (r *MatchRequest) Validate() error {
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.Position = strings.TrimSpace(r.Position)
	return validate.Struct(r)
}

type CreateAssessmentRequest struct {
	Kind           string         `json:"kind" validate:"omitempty,oneof=quiz match"`
	Position       string         `json:"position" validate:"required,max=200"`
	AverageScore   *float64       `json:"average_score" validate:"required,min=0,max=100"`
	SkillsAnalyzed map[string]any `json:"skills_analyzed" validate:"required"`
}

func (r *CreateAssessmentRequest) Validate() error {
	return validate.Struct(r)
}

// FirstValidationError turns validator output into a field name and a short message.
func FirstValidationError(err error) (string, string) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		fe := validationErrors[0]
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			return field, "is required"
		case "oneof":
			return field, fmt.Sprintf("must be one of: %s", fe.Param())
		case "min", "max":
			return field, fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		default:
			return field, fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return "", "invalid request"
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
