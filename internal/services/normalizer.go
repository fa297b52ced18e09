package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/d-alshehri/VeriCV-v2/internal/logger"
	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

type ParseKind int

const (
	ParseEmpty ParseKind = iota
	ParseValid
	ParseMalformed
)

func (k ParseKind) String() string {
	switch k {
	case ParseValid:
		return "valid"
	case ParseMalformed:
		return "malformed"
	default:
		return "empty"
	}
}

// RepairStage names the pass of ExtractJSON that produced a parseable candidate.
type RepairStage string

const (
	StageNone   RepairStage = ""
	StageSpan   RepairStage = "span"
	StageFence  RepairStage = "fence"
	StageTrim   RepairStage = "trim"
	StageRepair RepairStage = "repair"
)

// ParseResult is the outcome of ExtractJSON. Data is set only for ParseValid, Preview only for ParseMalformed.
type ParseResult struct {
	Kind    ParseKind
	Stage   RepairStage
	Data    json.RawMessage
	Preview string
}

var (
	jsonSpan      = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	codeFence     = regexp.MustCompile("```[A-Za-z0-9_-]*")
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
)

// ExtractJSON pulls a JSON document out of free-form model output.
// It never fails: anything it cannot recover comes back as ParseEmpty or ParseMalformed.
func ExtractJSON(raw string) ParseResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ParseResult{Kind: ParseEmpty}
	}

	if span := jsonSpan.FindString(text); span != "" && json.Valid([]byte(span)) {
		return validResult(StageSpan, span)
	}

	unfenced := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
	if unfenced == "" {
		return ParseResult{Kind: ParseEmpty}
	}
	if json.Valid([]byte(unfenced)) {
		return validResult(StageFence, unfenced)
	}
	if span := jsonSpan.FindString(unfenced); span != "" && json.Valid([]byte(span)) {
		return validResult(StageFence, span)
	}

	start := strings.IndexAny(unfenced, "[{")
	if start < 0 {
		return malformedResult(raw)
	}
	tail := unfenced[start:]
	candidate := tail
	if end := strings.LastIndexAny(candidate, "]}"); end >= 0 {
		candidate = candidate[:end+1]
	}
	if json.Valid([]byte(candidate)) {
		return validResult(StageTrim, candidate)
	}
	if lead, ok := firstPayload(tail); ok {
		return validResult(StageTrim, lead)
	}

	repaired := closeOpenBrackets(trailingComma.ReplaceAllString(candidate, "$1"))
	if json.Valid([]byte(repaired)) {
		return validResult(StageRepair, repaired)
	}

	return malformedResult(raw)
}

// Err returns nil for ParseValid and wraps ErrNormalization otherwise.
func (r ParseResult) Err() error {
	if r.Kind == ParseValid {
		return nil
	}
	return fmt.Errorf("%w: %s output", ErrNormalization, r.Kind)
}

func validResult(stage RepairStage, data string) ParseResult {
	return ParseResult{Kind: ParseValid, Stage: stage, Data: json.RawMessage(data)}
}

func malformedResult(raw string) ParseResult {
	return ParseResult{Kind: ParseMalformed, Preview: logger.TruncateForLog(raw, logger.DefaultPreviewLength)}
}

// firstPayload returns the first complete object, or non-empty array of objects, in s.
// Scalar fragments such as "[1]" in leading prose are skipped. Scanning stops at the first
// value that does not decode, which is left to the repair pass.
func firstPayload(s string) (string, bool) {
	for offset := 0; offset < len(s); {
		start := strings.IndexAny(s[offset:], "[{")
		if start < 0 {
			return "", false
		}
		offset += start

		value, consumed, ok := leadingValue(s[offset:])
		if !ok {
			return "", false
		}
		if isPayload(value) {
			return value, true
		}
		offset += consumed
	}
	return "", false
}

// leadingValue decodes the first complete JSON value of s and reports how many bytes it used.
func leadingValue(s string) (string, int, bool) {
	var v json.RawMessage
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&v); err != nil {
		return "", 0, false
	}
	return string(v), int(dec.InputOffset()), true
}

func isPayload(value string) bool {
	var root any
	if err := json.Unmarshal([]byte(value), &root); err != nil {
		return false
	}
	switch v := root.(type) {
	case map[string]any:
		return true
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			if _, ok := item.(map[string]any); !ok {
				return false
			}
		}
		return true
	}
	return false
}

// closeOpenBrackets appends the closers for brackets left open by a truncated generation.
// Input cut off inside a string literal is returned unchanged.
func closeOpenBrackets(s string) string {
	var stack []byte
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return s
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString || len(stack) == 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(strings.TrimSpace(s), ","))
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

//go:embed schema/question.json
var questionSchemaJSON string

var questionSchema = mustCompileSchema(questionSchemaJSON)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return schema
}

// QuestionBatch holds the questions that survived normalization. Dropped counts items rejected by validation.
type QuestionBatch struct {
	Parse     ParseResult
	Questions []models.Question
	Dropped   int
}

// NormalizeQuestions converts raw model output into validated questions. Invalid items are dropped individually.
func NormalizeQuestions(raw string) QuestionBatch {
	batch := QuestionBatch{Parse: ExtractJSON(raw), Questions: []models.Question{}}
	if batch.Parse.Kind != ParseValid {
		return batch
	}

	var root any
	if err := json.Unmarshal(batch.Parse.Data, &root); err != nil {
		batch.Parse = malformedResult(raw)
		return batch
	}

	for _, item := range questionItems(root) {
		q, ok := coerceQuestion(item)
		if !ok {
			batch.Dropped++
			continue
		}
		batch.Questions = append(batch.Questions, q)
	}
	return batch
}

func questionItems(root any) []any {
	switch v := root.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"questions", "data", "items"} {
			if items, ok := v[key].([]any); ok {
				return items
			}
		}
		if _, ok := v["question"]; ok {
			return []any{v}
		}
	}
	return nil
}

func coerceQuestion(item any) (models.Question, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.Question{}, false
	}

	doc := map[string]any{
		"question": strings.TrimSpace(stringValue(firstPresent(obj, "question", "text"))),
		"skill":    strings.TrimSpace(stringValue(obj["skill"])),
	}

	options, hasOptions := optionList(firstPresent(obj, "options", "choices"))
	if hasOptions {
		doc["options"] = options
	}
	if idx, ok := correctIndex(firstPresent(obj, "correct_index", "answer", "correct"), options); ok {
		doc["correct_index"] = idx
	}
	if doc["skill"] == "" {
		doc["skill"] = defaultSkill
	}

	difficulty, _ := models.ParseDifficulty(strings.ToLower(strings.TrimSpace(stringValue(obj["difficulty"]))))
	category, _ := models.ParseCategory(strings.ToLower(strings.TrimSpace(stringValue(obj["category"]))))
	doc["difficulty"] = string(difficulty)
	doc["category"] = string(category)

	result, err := questionSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		return models.Question{}, false
	}

	return models.Question{
		Question:     doc["question"].(string),
		Options:      options,
		CorrectIndex: doc["correct_index"].(int),
		Skill:        doc["skill"].(string),
		Difficulty:   difficulty,
		Category:     category,
	}, true
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func optionList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	options := make([]string, 0, len(items))
	for _, item := range items {
		options = append(options, strings.TrimSpace(stringValue(item)))
	}
	return options, true
}

// correctIndex accepts an integer, a numeric string, a letter A-D or the text of one of the options.
func correctIndex(v any, options []string) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || val < 0 {
			return 0, false
		}
		return int(val), true
	case string:
		if idx, ok := models.OptionIndex(val); ok {
			return idx, true
		}
		want := strings.TrimSpace(val)
		for i, opt := range options {
			if strings.EqualFold(opt, want) {
				return i, true
			}
		}
	}
	return 0, false
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringValue(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// MaxMissingKeywords caps the keyword list of a match report.
const MaxMissingKeywords = 10

// NormalizeMatchReport converts raw model output into a MatchReport.
// ok is false when no usable score could be read, which callers treat as a trigger for the heuristic matcher.
func NormalizeMatchReport(raw string) (models.MatchReport, ParseResult, bool) {
	report := models.MatchReport{MissingKeywords: []string{}, Source: models.SourceAI}

	parsed := ExtractJSON(raw)
	if parsed.Kind != ParseValid {
		return report, parsed, false
	}

	var obj map[string]any
	if err := json.Unmarshal(parsed.Data, &obj); err != nil {
		// a bare array has no score to read
		return report, parsed, false
	}

	score, ok := ParseScore(firstPresent(obj, "match_score", "score", "matchScore"))
	if !ok {
		return report, parsed, false
	}

	report.MatchScore = score
	report.MissingKeywords = keywordList(firstPresent(obj, "missing_keywords", "missingKeywords", "missing_skills"))
	report.Summary = strings.TrimSpace(stringValue(obj["summary"]))
	report.ImprovementAdvice = strings.TrimSpace(stringValue(firstPresent(obj, "improvement_advice", "advice", "improvements")))
	return report, parsed, true
}

func keywordList(v any) []string {
	var raw []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			raw = append(raw, stringValue(item))
		}
	case string:
		raw = strings.Split(val, ",")
	}
	return dedupeKeywords(raw, MaxMissingKeywords)
}

func dedupeKeywords(in []string, limit int) []string {
	out := make([]string, 0, min(len(in), limit))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}
