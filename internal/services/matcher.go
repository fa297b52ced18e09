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

const (
	fallbackModelError = "model_error"
	fallbackUnusable   = "unusable_output"
)

type MatchInput struct {
	ResumeText     string
	JobDescription string
	Position       string
}

type MatchService interface {
	// Match always produces a report. When the model fails the heuristic matcher answers instead.
	Match(ctx context.Context, userID string, in MatchInput) (*models.MatchReport, error)
}

type matchService struct {
	client         ModelClient
	assessmentRepo repositories.AssessmentRepository
	prompts        *PromptBuilder
	timeout        time.Duration
	maxLogLength   int
	log            *zap.Logger
}

// NewMatchService accepts a nil repository for offline use, in which case reports are not stored.
func NewMatchService(client ModelClient, assessmentRepo repositories.AssessmentRepository, cfg config.LLMConfig, log *zap.Logger) MatchService {
	return &matchService{
		client:         client,
		assessmentRepo: assessmentRepo,
		prompts:        NewPromptBuilder(),
		timeout:        cfg.MatchTimeout,
		maxLogLength:   cfg.MaxLogLength,
		log:            logger.OrNop(log),
	}
}

func (s *matchService) Match(ctx context.Context, userID string, in MatchInput) (*models.MatchReport, error) {
	if in.JobDescription == "" {
		return nil, NewValidationError("job_description", "is required")
	}

	report := s.evaluate(ctx, in)
	s.save(ctx, userID, in.Position, report)
	return &report, nil
}

func (s *matchService) evaluate(ctx context.Context, in MatchInput) models.MatchReport {
	prompt := s.prompts.BuildMatchPrompt(in.ResumeText, in.JobDescription, in.Position)

	raw, err := s.client.Generate(ctx, MatchCallOptions(s.timeout), matchSystemPrompt, prompt)
	if err != nil {
		s.log.Warn("⚠️ model unavailable, using heuristic match", zap.Error(err))
		fallbackActivationsTotal.WithLabelValues(fallbackModelError).Inc()
		return HeuristicMatch(in.ResumeText, in.JobDescription, in.Position)
	}

	report, parsed, ok := NormalizeMatchReport(raw)
	observeParse("match", parsed)
	if !ok {
		s.log.Warn("⚠️ match output has no usable score, using heuristic match",
			zap.Stringer("result", parsed.Kind),
			zap.NamedError("parse_error", parsed.Err()),
			zap.String("preview", logger.TruncateForLog(raw, s.maxLogLength)),
		)
		fallbackActivationsTotal.WithLabelValues(fallbackUnusable).Inc()
		return HeuristicMatch(in.ResumeText, in.JobDescription, in.Position)
	}
	return report
}

func (s *matchService) save(ctx context.Context, userID, position string, report models.MatchReport) {
	if s.assessmentRepo == nil {
		return
	}

	assessment := &models.Assessment{
		UserID:       userID,
		Kind:         models.KindMatch,
		Position:     position,
		AverageScore: float64(report.MatchScore),
	}
	err := setSkillsAnalyzed(assessment, map[string]any{
		"missing_keywords":   report.MissingKeywords,
		"summary":            report.Summary,
		"improvement_advice": report.ImprovementAdvice,
		"source":             report.Source,
	})
	if err == nil {
		err = s.assessmentRepo.Create(ctx, assessment)
	}
	if err != nil {
		s.log.Error("❌ failed to save match assessment", zap.String("user_id", userID), zap.Error(err))
		return
	}

	s.log.Info("✅ match report saved",
		zap.String("user_id", userID),
		zap.Int("match_score", report.MatchScore),
		zap.String("source", report.Source),
	)
}
