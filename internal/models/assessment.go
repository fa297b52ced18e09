package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssessmentKind string

const (
	KindQuiz  AssessmentKind = "quiz"
	KindMatch AssessmentKind = "match"
)

// Assessment is one persisted quiz score or job-match report.
// SkillsAnalyzed holds skill -> score for quizzes and free-form report fields for matches,
// so readers must not assume numeric values.
type Assessment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID         string         `gorm:"type:text;not null;index" json:"user_id"`
	Kind           AssessmentKind `gorm:"type:text;not null;default:'quiz'" json:"kind"`
	Position       string         `gorm:"type:text" json:"position"`
	AverageScore   float64        `gorm:"not null" json:"average_score"`
	SkillsAnalyzed datatypes.JSON `gorm:"type:jsonb" json:"skills_analyzed"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// NumericSkills returns the entries of SkillsAnalyzed whose values are numbers.
// Malformed or non-object payloads yield an empty map.
func (a *Assessment) NumericSkills() map[string]float64 {
	out := make(map[string]float64)
	if len(a.SkillsAnalyzed) == 0 {
		return out
	}

	var raw map[string]any
	if err := json.Unmarshal(a.SkillsAnalyzed, &raw); err != nil {
		return out
	}

	for key, value := range raw {
		if f, ok := value.(float64); ok {
			out[key] = f
		}
	}
	return out
}

// TopSkills returns up to n skill names ordered by descending score, ties broken by name.
func (a *Assessment) TopSkills(n int) []string {
	skills := a.NumericSkills()
	if len(skills) == 0 || n <= 0 {
		return []string{}
	}

	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if skills[names[i]] != skills[names[j]] {
			return skills[names[i]] > skills[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}

func (a *Assessment) SkillsAnalyzedCount() int {
	return len(a.NumericSkills())
}
