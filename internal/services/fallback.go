package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

const (
	minTokenLength      = 3
	positionBonusPerHit = 3
	maxPositionBonus    = 10
)

var matchStopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "you": {},
	"are": {}, "have": {}, "will": {}, "this": {}, "that": {},
	"from": {}, "our": {}, "your": {}, "their": {}, "they": {},
	"work": {}, "team": {}, "role": {}, "job": {}, "join": {},
	"about": {}, "which": {}, "what": {}, "who": {}, "how": {},
	"can": {}, "not": {}, "but": {}, "all": {}, "also": {},
	"more": {}, "than": {}, "into": {}, "has": {}, "its": {},
	"was": {}, "were": {}, "been": {}, "each": {}, "new": {},
	"use": {}, "using": {}, "used": {}, "well": {}, "able": {},
	"experience": {}, "years": {}, "must": {}, "should": {}, "etc": {},
}

// matchTokens splits text into lowercase alphanumeric tokens longer than two characters, minus stop words.
func matchTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < minTokenLength {
			continue
		}
		if _, stop := matchStopWords[f]; stop {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// HeuristicMatch scores a resume against a job description by keyword overlap.
// It is deterministic and always returns a report.
func HeuristicMatch(resume, jobDescription, position string) models.MatchReport {
	report := models.MatchReport{MissingKeywords: []string{}, Source: models.SourceHeuristic}

	jd := matchTokens(jobDescription)
	if len(jd) == 0 {
		report.Summary = "The job description contains no keywords to compare against."
		report.ImprovementAdvice = "Provide a more detailed job description to get a meaningful match score."
		return report
	}

	cv := matchTokens(resume)
	hits := overlap(jd, cv)
	bonus := min(maxPositionBonus, positionBonusPerHit*overlap(matchTokens(position), cv))
	score := 100*float64(hits)/float64(len(jd)) + float64(bonus)
	report.MatchScore = ClampScore(int(math.Round(score)))

	missing := make([]string, 0, len(jd)-hits)
	for t := range jd {
		if _, ok := cv[t]; !ok {
			missing = append(missing, t)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if len(missing[i]) != len(missing[j]) {
			return len(missing[i]) > len(missing[j])
		}
		return missing[i] < missing[j]
	})
	if len(missing) > MaxMissingKeywords {
		missing = missing[:MaxMissingKeywords]
	}
	report.MissingKeywords = missing

	report.Summary = fmt.Sprintf("Keyword comparison found %d of %d job description terms in the resume.", hits, len(jd))
	if len(missing) == 0 {
		report.ImprovementAdvice = "The resume already mentions the key terms of this job description."
	} else {
		report.ImprovementAdvice = "Consider adding concrete experience with: " + strings.Join(missing, ", ") + "."
	}
	return report
}
