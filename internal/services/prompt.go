package services

import (
	"fmt"
	"strings"
)

const (
	quizSystemPrompt  = "You are a technical interviewer who writes fair multiple-choice questions. You always answer with valid JSON only."
	matchSystemPrompt = "You are an experienced recruiter who compares resumes against job descriptions. You always answer with valid JSON only."
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildQuizPrompt asks for count multiple-choice questions about the skills found in the resume.
func (pb *PromptBuilder) BuildQuizPrompt(resumeText string, count int) string {
	return fmt.Sprintf(`Read the candidate's resume below and identify the skills it claims.
Write exactly %d multiple-choice questions that test those skills.

CANDIDATE RESUME:
%s

Rules:
- Each question has exactly 4 options and exactly one correct option.
- "correct_index" is the zero-based position of the correct option (0, 1, 2 or 3).
- "skill" is the resume skill the question tests, e.g. "Python" or "Teamwork".
- "difficulty" is one of: "easy", "medium", "hard".
- "category" is one of: "technical", "soft".
- Mix technical and soft-skill questions when the resume supports both.

Return ONLY a JSON array, with no markdown, no code fences and no text before or after it.
Each element must have this shape:
[
  {
    "question": "<question text>",
    "options": ["<option A>", "<option B>", "<option C>", "<option D>"],
    "correct_index": <0-3>,
    "skill": "<skill name>",
    "difficulty": "easy|medium|hard",
    "category": "technical|soft"
  }
]

Example:
[
  {
    "question": "Which Python keyword defines a generator function?",
    "options": ["yield", "return", "async", "lambda"],
    "correct_index": 0,
    "skill": "Python",
    "difficulty": "medium",
    "category": "technical"
  }
]`, count, fallbackText(resumeText, "(no resume text was provided)"))
}

// BuildMatchPrompt asks for a 0-100 match score of the resume against a job description.
func (pb *PromptBuilder) BuildMatchPrompt(resumeText, jobDescription, position string) string {
	return fmt.Sprintf(`Compare the candidate's resume with the job description for the %s position.

JOB DESCRIPTION:
%s

CANDIDATE RESUME:
%s

Rules:
- "match_score" is an integer from 0 to 100 describing how well the resume fits the job.
- "missing_keywords" lists at most 10 important skills or terms from the job description that the resume does not show.
- "summary" is 2-3 sentences on the overall fit.
- "improvement_advice" is 2-3 concrete suggestions to improve the resume for this job.

Return ONLY a JSON object, with no markdown, no code fences and no text before or after it:
{
  "match_score": <0-100>,
  "missing_keywords": ["<keyword>", "..."],
  "summary": "<summary>",
  "improvement_advice": "<advice>"
}

Example:
{
  "match_score": 72,
  "missing_keywords": ["Kubernetes", "GraphQL"],
  "summary": "Solid backend experience with Go and PostgreSQL that covers most of the core requirements.",
  "improvement_advice": "Describe any container orchestration work and quantify the impact of your API projects."
}`, fallbackText(position, "advertised"), fallbackText(jobDescription, "(none)"), fallbackText(resumeText, "(no resume text was provided)"))
}

func fallbackText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
