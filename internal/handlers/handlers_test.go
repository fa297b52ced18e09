package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

type fakeQuiz struct {
	input     services.QuizInput
	submitted services.SubmitInput
	userID    string
	err       error
}

func (f *fakeQuiz) GenerateQuiz(_ context.Context, in services.QuizInput) (*models.QuizResult, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.QuizResult{Questions: []models.Question{}, SecondsPerQuestion: 60, MaxQuestions: 20}, nil
}

func (f *fakeQuiz) SubmitAnswers(_ context.Context, userID string, in services.SubmitInput) (*models.ScoreReport, error) {
	f.userID = userID
	f.submitted = in
	return &models.ScoreReport{OverallScore: 70, Score: 70, Skills: []models.SkillScore{}, Results: []models.QuestionResult{}}, nil
}

type fakeMatch struct {
	input  services.MatchInput
	userID string
	err    error
}

func (f *fakeMatch) Match(_ context.Context, userID string, in services.MatchInput) (*models.MatchReport, error) {
	f.userID = userID
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.MatchReport{MatchScore: 77, MissingKeywords: []string{"Kafka"}, Source: models.SourceAI}, nil
}

type fakeResumes struct {
	uploadName string
	uploadBody string
	cvID       string
	err        error
}

func (f *fakeResumes) FromUpload(_ context.Context, filename string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	f.uploadName, f.uploadBody = filename, string(data)
	return "uploaded text", f.err
}

func (f *fakeResumes) FromDocument(_ context.Context, _ string, cvID string) (string, error) {
	f.cvID = cvID
	return "stored text", f.err
}

type fakeAssessments struct {
	list    []models.Assessment
	created services.CreateAssessmentInput
	userID  string
}

func (f *fakeAssessments) List(_ context.Context, userID string) ([]models.Assessment, error) {
	f.userID = userID
	return f.list, nil
}

func (f *fakeAssessments) Create(_ context.Context, userID string, in services.CreateAssessmentInput) (*models.Assessment, error) {
	f.userID = userID
	f.created = in
	return &models.Assessment{ID: uuid.New(), UserID: userID, Kind: in.Kind, Position: in.Position, AverageScore: in.AverageScore}, nil
}

type testServer struct {
	app         *fiber.App
	quiz        *fakeQuiz
	match       *fakeMatch
	resumes     *fakeResumes
	assessments *fakeAssessments
}

func newTestServer(verifier TokenVerifier) *testServer {
	s := &testServer{
		quiz:        &fakeQuiz{},
		match:       &fakeMatch{},
		resumes:     &fakeResumes{},
		assessments: &fakeAssessments{},
	}
	s.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	Register(s.app, Handlers{
		Quiz:        NewQuizHandler(s.quiz, s.resumes),
		Match:       NewMatchHandler(s.match, s.resumes),
		Assessments: NewAssessmentHandler(s.assessments),
		Verifier:    verifier,
	})
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &body))
	}
	return resp.StatusCode, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, path, fileKey, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileKey != "" {
		part, err := w.CreateFormFile(fileKey, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(nil)
	s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "vericv_http_requests_total")
}

func TestGenerateQuestions_JSON(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ai/generate-questions", `{"cv_text":"Go developer","count":"5"}`))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.QuizInput{ResumeText: "Go developer", RequestedCount: "5"}, s.quiz.input)
	assert.Equal(t, float64(60), body["seconds_per_question"])
	assert.Equal(t, []any{}, body["questions"])
}

func TestGenerateQuestions_StoredCV(t *testing.T) {
	s := newTestServer(nil)
	id := uuid.NewString()

	status, _ := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ai/generate-questions", `{"cv_id":"`+id+`","count":3}`))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, s.resumes.cvID)
	assert.Equal(t, services.QuizInput{ResumeText: "stored text", RequestedCount: "3"}, s.quiz.input)
}

func TestGenerateQuestions_MultipartAnyFileKey(t *testing.T) {
	for _, key := range uploadFileKeys {
		s := newTestServer(nil)
		req := multipartRequest(t, "/api/v1/ai/generate-questions", key, "me.pdf", "%PDF-1.4", map[string]string{"count": "7"})

		status, _ := s.do(t, req)

		assert.Equal(t, http.StatusOK, status, key)
		assert.Equal(t, "me.pdf", s.resumes.uploadName, key)
		assert.Equal(t, "%PDF-1.4", s.resumes.uploadBody, key)
		assert.Equal(t, services.QuizInput{ResumeText: "uploaded text", RequestedCount: "7"}, s.quiz.input, key)
	}
}

func TestGenerateQuestions_RequiresResume(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, multipartRequest(t, "/api/v1/ai/generate-questions", "attachment", "me.pdf", "x", nil))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "cv", body["field"])
}

func TestGenerate_Query(t *testing.T) {
	s := newTestServer(nil)

	status, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/quiz/generate?count=4&cv_text=Python", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.QuizInput{ResumeText: "Python", RequestedCount: "4"}, s.quiz.input)
}

func TestGenerate_ServiceErrorsAreMapped(t *testing.T) {
	tests := []struct {
		name   string
		quiz   error
		resume error
		status int
		leaks  string
	}{
		{
			name:   "exhausted model",
			quiz:   &services.ModelCallError{Status: 429, Body: `{"error":"quota for org-123"}`, Exhausted: true, Attempts: 3},
			status: http.StatusBadGateway,
			leaks:  "org-123",
		},
		{
			name:   "upstream failure",
			quiz:   &services.ModelCallError{Status: 500, Body: "stack trace at upstream.go:12"},
			status: http.StatusBadGateway,
			leaks:  "upstream.go",
		},
		{
			name:   "unknown cv",
			resume: services.ErrCVNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "unreadable document",
			resume: &services.ExtractionError{File: "x.pdf", Cause: errors.New("xref table at /tmp/secret")},
			status: http.StatusUnprocessableEntity,
			leaks:  "/tmp/secret",
		},
		{
			name:   "bad id",
			resume: services.NewValidationError("cv_id", "must be a valid id"),
			status: http.StatusBadRequest,
		},
		{
			name:   "unexpected",
			quiz:   errors.New("pq: password authentication failed"),
			status: http.StatusInternalServerError,
			leaks:  "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil)
			s.quiz.err = tt.quiz
			s.resumes.err = tt.resume

			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/quiz/generate?cv_id=abc", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.leaks != "" {
				assert.NotContains(t, string(data), tt.leaks)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	s := newTestServer(nil)
	req := jsonRequest(http.MethodPost, "/api/v1/ai/submit", `{"answers":{"What is SQL?":"B"},"position":"Analyst"}`)
	req.Header.Set(userIDHeader, "user-42")

	status, body := s.do(t, req)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-42", s.quiz.userID)
	assert.Equal(t, "Analyst", s.quiz.submitted.Position)
	require.Len(t, s.quiz.submitted.Answers, 1)
	assert.Equal(t, 1, *s.quiz.submitted.Answers[0].Chosen)
	assert.Equal(t, float64(70), body["overall_score"])
	assert.Equal(t, float64(70), body["score"])
}

func TestSubmit_InvalidAnswers(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/ai/submit", `{"answers":"all of them"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "answers", body["field"])

	status, body = s.do(t, jsonRequest(http.MethodPost, "/api/v1/ai/submit", `{}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "answers", body["field"])

	status, _ = s.do(t, jsonRequest(http.MethodPost, "/api/v1/ai/submit", `{"answers":`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMatch_JSON(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/match",
		`{"resume_text":"Go, Postgres","job_description":" Go and Kafka ","position":"Backend"}`))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.MatchInput{ResumeText: "Go, Postgres", JobDescription: "Go and Kafka", Position: "Backend"}, s.match.input)
	assert.Equal(t, "anonymous", s.match.userID)
	assert.Equal(t, float64(77), body["match_score"])
	assert.Equal(t, []any{"Kafka"}, body["missing_keywords"])
}

func TestMatch_MultipartUpload(t *testing.T) {
	s := newTestServer(nil)
	req := multipartRequest(t, "/api/v1/match", "cv", "cv.docx", "docx bytes", map[string]string{
		"job_description": "Go",
		"position":        "Backend",
	})

	status, _ := s.do(t, req)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cv.docx", s.resumes.uploadName)
	assert.Equal(t, "uploaded text", s.match.input.ResumeText)
}

func TestMatch_Validation(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/match", `{"resume_text":"Go","job_description":"Go"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "position", body["field"])

	status, body = s.do(t, jsonRequest(http.MethodPost, "/api/v1/match", `{"job_description":"Go","position":"Dev"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "cv", body["field"])
}

func TestAssessments_List(t *testing.T) {
	s := newTestServer(nil)
	s.assessments.list = []models.Assessment{
		{
			ID:             uuid.New(),
			Kind:           models.KindQuiz,
			AverageScore:   80,
			SkillsAnalyzed: datatypes.JSON(`{"Go":90,"SQL":70,"React":85,"Teamwork":60,"Python":75}`),
		},
		{
			ID:             uuid.New(),
			Kind:           models.KindMatch,
			AverageScore:   55,
			SkillsAnalyzed: datatypes.JSON(`{"missing_keywords":["Kafka"],"summary":"ok","source":"ai"}`),
		},
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var views []AssessmentView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))

	require.Len(t, views, 2)
	assert.Equal(t, []string{"Go", "React", "Python", "SQL"}, views[0].TopSkills)
	assert.Equal(t, 5, views[0].SkillsAnalyzedCount)
	assert.Equal(t, []string{}, views[1].TopSkills)
	assert.Equal(t, 0, views[1].SkillsAnalyzedCount)
}

func TestAssessments_Create(t *testing.T) {
	s := newTestServer(nil)

	status, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/assessments",
		`{"position":"QA","average_score":64.5,"skills_analyzed":{"Testing":64.5}}`))

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 64.5, s.assessments.created.AverageScore)
	assert.Equal(t, map[string]any{"Testing": 64.5}, s.assessments.created.SkillsAnalyzed)
	assert.Equal(t, "QA", body["position"])

	status, body = s.do(t, jsonRequest(http.MethodPost, "/api/v1/assessments", `{"position":"QA","skills_analyzed":{}}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "average_score", body["field"])
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAuth_JWT(t *testing.T) {
	const secret = "test-secret"
	s := newTestServer(NewJWTVerifier(secret))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	status, _ := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte("wrong"), "user-1"))
	status, _ = s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS512, []byte(secret), "user-1"))
	status, _ = s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(secret), "user-1"))
	req.Header.Set(userIDHeader, "spoofed")
	status, _ = s.do(t, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1", s.assessments.userID)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestAuth_HeaderFallback(t *testing.T) {
	s := newTestServer(nil)

	s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil))
	assert.Equal(t, anonymousUser, s.assessments.userID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	req.Header.Set(userIDHeader, "user-9")
	s.do(t, req)
	assert.Equal(t, "user-9", s.assessments.userID)
}
