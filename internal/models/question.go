package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Category string

const (
	CategoryTechnical Category = "technical"
	CategorySoft      Category = "soft"
)

const OptionsPerQuestion = 4

// Question is a validated multiple-choice question: exactly four options and CorrectIndex in [0,3].
type Question struct {
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Skill        string     `json:"skill"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     Category   `json:"category"`
}

func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	}
	return DifficultyMedium, false
}

func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryTechnical, CategorySoft:
		return c, true
	}
	return CategoryTechnical, false
}

// MatchReport is the outcome of comparing a resume against a job description.
type MatchReport struct {
	MatchScore        int      `json:"match_score"`
	MissingKeywords   []string `json:"missing_keywords"`
	Summary           string   `json:"summary"`
	ImprovementAdvice string   `json:"improvement_advice"`
	Source            string   `json:"source"`
}

const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
)
