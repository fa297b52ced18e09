package services

import (
	"math"
	"strings"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

const (
	defaultSkill = "General"
	// open-ended answers count as ungraded rather than wrong
	openEndedCredit = 70
	neutralOverall  = 70
)

type skillAccumulator struct {
	skill    string
	category string
	sum      int
	count    int
}

// AggregateScores turns submitted answers into per-skill and overall percentages.
// Skills are reported in the order they were first seen.
func AggregateScores(answers []models.Answer) models.ScoreReport {
	report := models.ScoreReport{
		Skills:  []models.SkillScore{},
		Results: make([]models.QuestionResult, 0, len(answers)),
	}

	var order []*skillAccumulator
	buckets := make(map[string]*skillAccumulator)

	for _, a := range answers {
		skill := a.Skill
		if skill == "" {
			skill = inferSkill(a.Question)
		}
		category := a.Category
		if category == "" {
			category = string(models.CategoryTechnical)
		}

		acc, ok := buckets[skill]
		if !ok {
			acc = &skillAccumulator{skill: skill, category: category}
			buckets[skill] = acc
			order = append(order, acc)
		}

		result := models.QuestionResult{Question: a.Question, Skill: skill, Category: category}
		switch {
		case a.Chosen != nil && a.Correct != nil:
			report.Total++
			if *a.Chosen == *a.Correct {
				report.Correct++
				result.Score, result.Status = 100, models.StatusCorrect
			} else {
				result.Score, result.Status = 0, models.StatusIncorrect
			}
		default:
			result.Score, result.Status = openEndedCredit, models.StatusUngraded
		}

		acc.sum += result.Score
		acc.count++
		report.Results = append(report.Results, result)
	}

	report.OverallScore = neutralOverall
	if report.Total > 0 {
		report.OverallScore = roundPercent(100*float64(report.Correct), float64(report.Total))
	}
	report.Score = report.OverallScore

	for _, acc := range order {
		report.Skills = append(report.Skills, models.SkillScore{
			Skill:    acc.skill,
			Category: acc.category,
			Score:    roundPercent(float64(acc.sum), float64(acc.count)),
		})
	}
	return report
}

func roundPercent(num, den float64) int {
	if den == 0 {
		return 0
	}
	return ClampScore(int(math.Round(num / den)))
}

var skillHints = []struct {
	skill    string
	keywords []string
}{
	{"React", []string{"react"}},
	{"Python", []string{"python"}},
	{"SQL", []string{"sql", "database"}},
	{"Project Management", []string{"project management"}},
	{"Communication", []string{"communication"}},
}

// inferSkill guesses a skill label for answers submitted without one.
func inferSkill(question string) string {
	q := strings.ToLower(question)
	for _, hint := range skillHints {
		for _, kw := range hint.keywords {
			if strings.Contains(q, kw) {
				return hint.skill
			}
		}
	}
	return defaultSkill
}
