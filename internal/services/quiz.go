package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/logger"
	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
)

type QuizInput struct {
	ResumeText     string
	RequestedCount string
}

type SubmitInput struct {
	Answers  []models.Answer
	Position string
}

type QuizService interface {
	GenerateQuiz(ctx context.Context, in QuizInput) (*models.QuizResult, error)
	SubmitAnswers(ctx context.Context, userID string, in SubmitInput) (*models.ScoreReport, error)
}

type quizService struct {
	client         ModelClient
	cache          QuestionCache
	assessmentRepo repositories.AssessmentRepository
	prompts        *PromptBuilder
	cfg            config.QuizConfig
	timeout        time.Duration
	maxLogLength   int
	log            *zap.Logger
	now            func() time.Time
}

func NewQuizService(
	client ModelClient,
	cache QuestionCache,
	assessmentRepo repositories.AssessmentRepository,
	cfg *config.Config,
	log *zap.Logger,
) QuizService {
	if cache == nil {
		cache = NewNoopQuestionCache()
	}
	return &quizService{
		client:         client,
		cache:          cache,
		assessmentRepo: assessmentRepo,
		prompts:        NewPromptBuilder(),
		cfg:            cfg.Quiz,
		timeout:        cfg.LLM.QuizTimeout,
		maxLogLength:   cfg.LLM.MaxLogLength,
		log:            logger.OrNop(log),
		now:            time.Now,
	}
}

// GenerateQuiz returns at most the resolved question count. Unusable model output yields an empty quiz, not an error.
func (s *quizService) GenerateQuiz(ctx context.Context, in QuizInput) (*models.QuizResult, error) {
	count := ResolveQuestionCount(in.RequestedCount, s.cfg.MaxQuestions, s.cfg.DefaultQuestions)

	if cached, ok := s.cache.Get(ctx, in.ResumeText, count); ok {
		s.log.Debug("quiz served from cache", zap.Int("count", len(cached)))
		return s.result(LimitQuestions(cached, count)), nil
	}

	if in.ResumeText == "" {
		s.log.Warn("⚠️ generating quiz without resume text")
	}

	raw, err := s.client.Generate(ctx, QuizCallOptions(s.timeout), quizSystemPrompt, s.prompts.BuildQuizPrompt(in.ResumeText, count))
	if err != nil {
		return nil, err
	}

	batch := NormalizeQuestions(raw)
	observeParse("questions", batch.Parse)
	droppedQuestionsTotal.Add(float64(batch.Dropped))

	switch {
	case batch.Parse.Kind != ParseValid:
		s.log.Warn("⚠️ quiz output could not be normalized",
			zap.Error(batch.Parse.Err()),
			zap.String("preview", logger.TruncateForLog(batch.Parse.Preview, s.maxLogLength)),
		)
	case batch.Dropped > 0:
		s.log.Info("dropped invalid questions",
			zap.Int("dropped", batch.Dropped),
			zap.Int("kept", len(batch.Questions)),
			zap.String("stage", string(batch.Parse.Stage)),
		)
	}

	questions := LimitQuestions(batch.Questions, count)
	s.cache.Set(ctx, in.ResumeText, count, questions)

	s.log.Info("✅ quiz generated", zap.Int("requested", count), zap.Int("returned", len(questions)))
	return s.result(questions), nil
}

func (s *quizService) result(questions []models.Question) *models.QuizResult {
	duration := len(questions) * s.cfg.SecondsPerQuestion
	return &models.QuizResult{
		Questions:          questions,
		SecondsPerQuestion: s.cfg.SecondsPerQuestion,
		MaxQuestions:       s.cfg.MaxQuestions,
		DurationSeconds:    duration,
		Deadline:           s.now().UTC().Add(time.Duration(duration) * time.Second),
	}
}

// SubmitAnswers scores the answers and stores the result. A failed save is logged and the score is still returned.
func (s *quizService) SubmitAnswers(ctx context.Context, userID string, in SubmitInput) (*models.ScoreReport, error) {
	report := AggregateScores(in.Answers)

	assessment := &models.Assessment{
		UserID:       userID,
		Kind:         models.KindQuiz,
		Position:     in.Position,
		AverageScore: float64(report.OverallScore),
	}
	if err := setSkillsAnalyzed(assessment, report.SkillMap()); err != nil {
		s.log.Error("failed to encode quiz skills", zap.Error(err))
	} else if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		s.log.Error("❌ failed to save quiz assessment", zap.String("user_id", userID), zap.Error(err))
	}

	s.log.Info("✅ answers scored",
		zap.String("user_id", userID),
		zap.Int("answers", len(in.Answers)),
		zap.Int("overall_score", report.OverallScore),
	)
	return &report, nil
}
