package services

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

const (
	MinScore = 0
	MaxScore = 100
)

var numericPrefix = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ClampCount bounds n to [1, max].
func ClampCount(n, max int) int {
	if max < 1 {
		max = 1
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// ResolveQuestionCount reads the client's requested count, falling back to def when it is missing or not a number.
func ResolveQuestionCount(raw string, max, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = def
	}
	return ClampCount(n, max)
}

// LimitQuestions truncates to the first n questions. Order is preserved and nothing is padded.
func LimitQuestions(questions []models.Question, n int) []models.Question {
	if n < 0 {
		n = 0
	}
	if len(questions) <= n {
		return questions
	}
	return questions[:n]
}

// ParseScore reads a score from an int, a float or a string such as "78.5%".
// The value is rounded and clamped to [0,100]; ok is false when nothing numeric can be found.
func ParseScore(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case json.Number:
		return ParseScore(val.String())
	case string:
		m := numericPrefix.FindString(val)
		if m == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// clamp before converting, out-of-range floats have no int value
	f = math.Max(MinScore, math.Min(MaxScore, math.Round(f)))
	return int(f), true
}

func ClampScore(n int) int {
	return max(MinScore, min(MaxScore, n))
}
