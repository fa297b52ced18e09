package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Answer is one submitted quiz answer. Chosen and Correct are nil for open-ended items.
type Answer struct {
	Question string
	Skill    string
	Category string
	Chosen   *int
	Correct  *int
	Text     string
	Options  []string
}

type answerJSON struct {
	Question string          `json:"question"`
	Skill    string          `json:"skill"`
	Category string          `json:"category"`
	Chosen   json.RawMessage `json:"chosen"`
	Answer   json.RawMessage `json:"answer"`
	Correct  json.RawMessage `json:"correct"`
	Options  []string        `json:"options"`
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var aux answerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.Question = strings.TrimSpace(aux.Question)
	a.Skill = strings.TrimSpace(aux.Skill)
	a.Category = strings.ToLower(strings.TrimSpace(aux.Category))

	chosen := aux.Chosen
	if isAbsent(chosen) {
		chosen = aux.Answer
	}
	a.Options = aux.Options
	a.Chosen, a.Text = decodeChoice(chosen)
	if a.Chosen == nil {
		a.Chosen = optionByText(a.Text, aux.Options)
	}
	correct, correctText := decodeChoice(aux.Correct)
	if correct == nil {
		correct = optionByText(correctText, aux.Options)
	}
	a.Correct = correct
	return nil
}

// optionByText resolves an answer given as option text, ignoring case.
func optionByText(text string, options []string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), text) {
			idx := i
			return &idx
		}
	}
	return nil
}

// ParseAnswers accepts either a list of answer objects or a {question: answer} mapping.
func ParseAnswers(raw json.RawMessage) ([]Answer, error) {
	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) {
		return []Answer{}, nil
	}

	switch raw[0] {
	case '[':
		var answers []Answer
		if err := json.Unmarshal(raw, &answers); err != nil {
			return nil, fmt.Errorf("invalid answers list: %w", err)
		}
		return answers, nil
	case '{':
		var mapping map[string]json.RawMessage
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, fmt.Errorf("invalid answers mapping: %w", err)
		}
		questions := make([]string, 0, len(mapping))
		for q := range mapping {
			questions = append(questions, q)
		}
		// map iteration order is random; keep the output stable
		sort.Strings(questions)

		answers := make([]Answer, 0, len(mapping))
		for _, q := range questions {
			chosen, text := decodeChoice(mapping[q])
			answers = append(answers, Answer{Question: q, Chosen: chosen, Text: text})
		}
		return answers, nil
	default:
		return nil, fmt.Errorf("answers must be a list or an object")
	}
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeChoice reads an option reference: an integer, a numeric string or a letter A-D.
// Anything else is returned as free text.
func decodeChoice(raw json.RawMessage) (*int, string) {
	if isAbsent(raw) {
		return nil, ""
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number >= 0 && number <= math.MaxInt32 && number == math.Trunc(number) {
			idx := int(number)
			return &idx, ""
		}
		return nil, strconv.FormatFloat(number, 'f', -1, 64)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, ""
	}
	if idx, ok := OptionIndex(text); ok {
		return &idx, ""
	}
	return nil, strings.TrimSpace(text)
}

// OptionIndex converts "2" or "C" / "c)" style option references to a zero-based index.
func OptionIndex(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > math.MaxInt32 {
			return 0, false
		}
		return n, true
	}

	s = strings.TrimRight(s, ").:")
	if len(s) == 1 {
		c := s[0] | 0x20
		if c >= 'a' && c <= 'd' {
			return int(c - 'a'), true
		}
	}
	return 0, false
}
