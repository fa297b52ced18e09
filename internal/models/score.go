package models

const (
	StatusCorrect   = "correct"
	StatusIncorrect = "incorrect"
	StatusUngraded  = "ungraded"
)

type SkillScore struct {
	Skill    string `json:"skill"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type QuestionResult struct {
	Question string `json:"question"`
	Skill    string `json:"skill"`
	Category string `json:"category"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
}

// ScoreReport carries the per-skill shape (OverallScore, Skills) and the legacy per-question shape (Score, Results).
type ScoreReport struct {
	OverallScore int              `json:"overall_score"`
	Skills       []SkillScore     `json:"skills"`
	Score        int              `json:"score"`
	Results      []QuestionResult `json:"results"`
	Correct      int              `json:"correct"`
	Total        int              `json:"total"`
}

// SkillMap is the skill -> score projection stored on a quiz assessment.
func (r ScoreReport) SkillMap() map[string]any {
	m := make(map[string]any, len(r.Skills))
	for _, s := range r.Skills {
		m[s.Skill] = s.Score
	}
	return m
}
