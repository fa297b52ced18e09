package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/logger"
)

type CallKind string

const (
	CallQuiz  CallKind = "quiz"
	CallMatch CallKind = "match"
)

// CallOptions are the sampling parameters and per-attempt deadline of one model call.
type CallOptions struct {
	Kind        CallKind
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func QuizCallOptions(timeout time.Duration) CallOptions {
	return CallOptions{Kind: CallQuiz, Temperature: 0.4, MaxTokens: 3000, Timeout: timeout}
}

func MatchCallOptions(timeout time.Duration) CallOptions {
	return CallOptions{Kind: CallMatch, Temperature: 0.2, MaxTokens: 800, Timeout: timeout}
}

type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Generator is a single, non-retrying call to a text generation backend.
// Upstream failures are reported as *ModelCallError.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

// NewGenerator builds the backend selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator talks to any OpenAI compatible chat completions endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string) (Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		return nil, errors.New("llm model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are owned by ModelClient
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openAIGenerator{client: openai.NewClient(opts...), model: model}, nil
}

func (g *openAIGenerator) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(g.model),
		Temperature: openai.F(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := apiErr.JSON.RawJSON()
			if body == "" {
				body = apiErr.Error()
			}
			return "", &ModelCallError{Status: apiErr.StatusCode, Body: body, Cause: err}
		}
		return "", &ModelCallError{Cause: err}
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *openAIGenerator) Model() string {
	return g.model
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	client, err := newGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if model = strings.TrimSpace(model); model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

func (g *geminiGenerator) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", geminiCallError(err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

func (g *geminiGenerator) Model() string {
	return g.model
}

func geminiCallError(err error) *ModelCallError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ModelCallError{Status: apiErr.Code, Body: apiErr.Message, Cause: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ModelCallError{Status: apiErrPtr.Code, Body: apiErrPtr.Message, Cause: err}
	}
	return &ModelCallError{Cause: err}
}

// ModelClient adds per-attempt deadlines and bounded rate-limit retries on top of a Generator.
type ModelClient interface {
	Generate(ctx context.Context, opts CallOptions, system, prompt string) (string, error)
}

type modelClient struct {
	gen          Generator
	maxAttempts  int
	backoff      time.Duration
	maxLogLength int
	log          *zap.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewModelClient(gen Generator, cfg config.LLMConfig, log *zap.Logger) ModelClient {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	maxLog := cfg.MaxLogLength
	if maxLog <= 0 {
		maxLog = logger.DefaultPreviewLength
	}

	return &modelClient{
		gen:          gen,
		maxAttempts:  attempts,
		backoff:      cfg.RetryBackoff,
		maxLogLength: maxLog,
		log:          logger.OrNop(log),
		sleep:        waitFor,
	}
}

// Generate returns the raw text of the first successful attempt. Only 429 responses are retried.
func (c *modelClient) Generate(ctx context.Context, opts CallOptions, system, prompt string) (string, error) {
	kind := string(opts.Kind)
	log := c.log.With(
		zap.String("tid", shortuuid.New()),
		zap.String("kind", kind),
		zap.String("model", c.gen.Model()),
	)

	var last *ModelCallError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		modelAttemptsTotal.WithLabelValues(kind).Inc()
		start := time.Now()

		text, err := c.attempt(ctx, opts, system, prompt)
		if err == nil {
			log.Debug("model call succeeded",
				zap.Int("attempt", attempt),
				zap.Duration("took", time.Since(start)),
				zap.Int("response_length", len(text)),
			)
			modelCallsTotal.WithLabelValues(kind, outcomeSuccess).Inc()
			return text, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			modelCallsTotal.WithLabelValues(kind, outcomeCanceled).Inc()
			return "", &ModelCallError{Attempts: attempt, Cause: ctxErr}
		}

		var callErr *ModelCallError
		if !errors.As(err, &callErr) {
			callErr = &ModelCallError{Cause: err}
		}
		callErr.Attempts = attempt
		last = callErr

		if !callErr.Retryable() {
			log.Error("model call failed",
				zap.Int("attempt", attempt),
				zap.Int("status", callErr.Status),
				zap.String("body", logger.TruncateForLog(callErr.Body, c.maxLogLength)),
				zap.Error(callErr.Cause),
			)
			modelCallsTotal.WithLabelValues(kind, outcomeError).Inc()
			return "", callErr
		}

		if attempt == c.maxAttempts {
			break
		}

		log.Warn("model call rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", c.backoff),
		)
		if err := c.sleep(ctx, c.backoff); err != nil {
			modelCallsTotal.WithLabelValues(kind, outcomeCanceled).Inc()
			return "", &ModelCallError{Attempts: attempt, Cause: err}
		}
	}

	log.Error("model call gave up after rate limiting", zap.Int("attempts", c.maxAttempts))
	modelCallsTotal.WithLabelValues(kind, outcomeExhausted).Inc()

	exhausted := &ModelCallError{
		Status:    http.StatusTooManyRequests,
		Attempts:  c.maxAttempts,
		Exhausted: true,
	}
	if last != nil {
		exhausted.Body = last.Body
		exhausted.Cause = last.Cause
	}
	return "", exhausted
}

func (c *modelClient) attempt(ctx context.Context, opts CallOptions, system, prompt string) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	text, err := c.gen.Complete(ctx, CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &ModelCallError{Status: http.StatusGatewayTimeout, Cause: err}
	}
	return text, err
}

// waitFor sleeps for d or until ctx is done.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
