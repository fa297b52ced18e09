package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuizPrompt(t *testing.T) {
	pb := NewPromptBuilder()

	prompt := pb.BuildQuizPrompt("Go developer, 5 years with PostgreSQL", 7)

	assert.Contains(t, prompt, "exactly 7 multiple-choice questions")
	assert.Contains(t, prompt, "Go developer, 5 years with PostgreSQL")
	for _, field := range []string{`"question"`, `"options"`, `"correct_index"`, `"skill"`, `"difficulty"`, `"category"`} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, `"easy", "medium", "hard"`)
	assert.Contains(t, prompt, "Return ONLY a JSON array")
	assert.Contains(t, prompt, "Example:")

	assert.Equal(t, prompt, pb.BuildQuizPrompt("Go developer, 5 years with PostgreSQL", 7))
}

func TestBuildQuizPrompt_ExampleIsValid(t *testing.T) {
	prompt := NewPromptBuilder().BuildQuizPrompt("", 1)

	assert.Contains(t, prompt, "(no resume text was provided)")

	example := prompt[strings.Index(prompt, "Example:"):]
	batch := NormalizeQuestions(example)
	assert.Len(t, batch.Questions, 1)
}

func TestBuildMatchPrompt(t *testing.T) {
	prompt := NewPromptBuilder().BuildMatchPrompt("resume body", "We need Kafka", "Backend Engineer")

	assert.Contains(t, prompt, "Backend Engineer position")
	assert.Contains(t, prompt, "We need Kafka")
	assert.Contains(t, prompt, "resume body")
	assert.Contains(t, prompt, "Return ONLY a JSON object")
	for _, field := range []string{`"match_score"`, `"missing_keywords"`, `"summary"`, `"improvement_advice"`} {
		assert.Contains(t, prompt, field)
	}

	report, _, ok := NormalizeMatchReport(prompt[strings.Index(prompt, "Example:"):])
	assert.True(t, ok)
	assert.Equal(t, 72, report.MatchScore)
}
