package models

import "time"

// QuizResult is a generated quiz together with its timing budget.
type QuizResult struct {
	Questions          []Question `json:"questions"`
	SecondsPerQuestion int        `json:"seconds_per_question"`
	MaxQuestions       int        `json:"max_questions"`
	DurationSeconds    int        `json:"duration_seconds"`
	Deadline           time.Time  `json:"deadline"`
}
