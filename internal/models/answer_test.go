package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestParseAnswers_List(t *testing.T) {
	answers, err := ParseAnswers(json.RawMessage(`[
		{"question":" What is SQL? ","skill":"SQL","category":"Technical","chosen":2,"correct":"2"},
		{"question":"Pick one","answer":"b","correct":"C"},
		{"question":"Describe a conflict","category":"soft","chosen":"I listened first"},
		{"question":"Odd","chosen":1.5}
	]`))
	require.NoError(t, err)
	require.Len(t, answers, 4)

	assert.Equal(t, Answer{Question: "What is SQL?", Skill: "SQL", Category: "technical", Chosen: intPtr(2), Correct: intPtr(2)}, answers[0])
	assert.Equal(t, intPtr(1), answers[1].Chosen)
	assert.Equal(t, intPtr(2), answers[1].Correct)
	assert.Nil(t, answers[2].Chosen)
	assert.Equal(t, "I listened first", answers[2].Text)
	assert.Equal(t, "soft", answers[2].Category)
	assert.Nil(t, answers[3].Chosen)
	assert.Equal(t, "1.5", answers[3].Text)
}

func TestParseAnswers_MappingIsSortedByQuestion(t *testing.T) {
	answers, err := ParseAnswers(json.RawMessage(`{"b question": "A", "a question": 3, "c question": "free text"}`))
	require.NoError(t, err)
	require.Len(t, answers, 3)

	assert.Equal(t, "a question", answers[0].Question)
	assert.Equal(t, intPtr(3), answers[0].Chosen)
	assert.Equal(t, "b question", answers[1].Question)
	assert.Equal(t, intPtr(0), answers[1].Chosen)
	assert.Nil(t, answers[2].Chosen)
	assert.Equal(t, "free text", answers[2].Text)
	assert.Nil(t, answers[2].Correct)
}

func TestParseAnswers_Empty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		answers, err := ParseAnswers(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.NotNil(t, answers)
		assert.Empty(t, answers)
	}
}

func TestParseAnswers_Invalid(t *testing.T) {
	for _, raw := range []string{`"yes"`, `42`, `[1, 2`, `{"q": }`} {
		_, err := ParseAnswers(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestOptionIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{" 3 ", 3, true},
		{"A", 0, true},
		{"c)", 2, true},
		{"D.", 3, true},
		{"b:", 1, true},
		{"E", 0, false},
		{"-1", 0, false},
		{"", 0, false},
		{"yield", 0, false},
	}
	for _, tt := range tests {
		got, ok := OptionIndex(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestParseAnswers_ResolvesOptionText(t *testing.T) {
	answers, err := ParseAnswers(json.RawMessage(`[
		{"question":"Generator keyword?","options":["yield","return","async","lambda"],"chosen":" YIELD ","correct":"yield"},
		{"question":"Generator keyword?","options":["yield","return"],"chosen":"goroutine","correct":0}
	]`))
	require.NoError(t, err)
	require.Len(t, answers, 2)

	assert.Equal(t, intPtr(0), answers[0].Chosen)
	assert.Equal(t, intPtr(0), answers[0].Correct)
	assert.Nil(t, answers[1].Chosen)
	assert.Equal(t, "goroutine", answers[1].Text)
}

func TestParseAnswers_HugeIndexIsText(t *testing.T) {
	answers, err := ParseAnswers(json.RawMessage(`[{"chosen":1e20,"correct":"99999999999"}]`))
	require.NoError(t, err)
	require.Len(t, answers, 1)

	assert.Nil(t, answers[0].Chosen)
	assert.Equal(t, "100000000000000000000", answers[0].Text)
	assert.Nil(t, answers[0].Correct)
}
