package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
)

func TestHeuristicMatch_EmptyResume(t *testing.T) {
	report := HeuristicMatch("", "Python SQL React", "Engineer")

	assert.Equal(t, 0, report.MatchScore)
	assert.Equal(t, []string{"python", "react", "sql"}, report.MissingKeywords)
	assert.Equal(t, models.SourceHeuristic, report.Source)
}

func TestHeuristicMatch_EmptyJobDescription(t *testing.T) {
	for _, jd := range []string{"", "   ", "a an to", "the and with"} {
		report := HeuristicMatch("Go developer with Kubernetes", jd, "Engineer")
		assert.Equal(t, 0, report.MatchScore, "jd %q", jd)
		assert.NotNil(t, report.MissingKeywords)
		assert.Empty(t, report.MissingKeywords)
	}
}

func TestHeuristicMatch_Overlap(t *testing.T) {
	resume := "Backend engineer: Go, PostgreSQL, Docker and Kubernetes."
	jd := "We need Go, PostgreSQL, Kafka and Kubernetes skills."

	report := HeuristicMatch(resume, jd, "")

	// jd tokens: need, postgresql, kafka, kubernetes, skills ("go" is too short)
	assert.Equal(t, 40, report.MatchScore)
	assert.Equal(t, []string{"skills", "kafka", "need"}, report.MissingKeywords)
}

func TestHeuristicMatch_PositionBonusIsCapped(t *testing.T) {
	resume := "senior backend platform engineer python"
	jd := "python"

	withoutPosition := HeuristicMatch(resume, jd+" kotlin", "")
	withPosition := HeuristicMatch(resume, jd+" kotlin", "Senior Backend Platform Engineer")

	assert.Equal(t, 50, withoutPosition.MatchScore)
	assert.Equal(t, 60, withPosition.MatchScore)

	full := HeuristicMatch(resume, jd, "Senior Backend Engineer")
	assert.Equal(t, 100, full.MatchScore)
}

func TestHeuristicMatch_MissingKeywordsCapped(t *testing.T) {
	jd := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	report := HeuristicMatch("", jd, "")

	require.Len(t, report.MissingKeywords, MaxMissingKeywords)
	assert.Equal(t, []string{"charlie", "foxtrot", "juliet"}, report.MissingKeywords[:3])
	for i := 1; i < len(report.MissingKeywords); i++ {
		prev, cur := report.MissingKeywords[i-1], report.MissingKeywords[i]
		assert.GreaterOrEqual(t, len(prev), len(cur))
	}
}

func TestHeuristicMatch_Deterministic(t *testing.T) {
	resume := "Data analyst skilled in SQL, Tableau, Excel and Python scripting"
	jd := "Looking for an analyst with SQL, Power BI, Snowflake, dbt, Python and stakeholder communication"

	first := HeuristicMatch(resume, jd, "Data Analyst")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, HeuristicMatch(resume, jd, "Data Analyst"))
	}
}
