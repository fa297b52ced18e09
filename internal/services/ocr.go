package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/logger"
)

// Recognizer reads text out of a scanned PDF that has no text layer.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
	Name() string
}

// NewRecognizer returns nil when OCR is disabled.
func NewRecognizer(ctx context.Context, cfg *config.Config, log *zap.Logger) (Recognizer, error) {
	switch cfg.OCR.Provider {
	case config.OCRGemini:
		client, err := newGenAIClient(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiRecognizer(client, cfg.LLM.GeminiModel), nil
	case config.OCRTesseract:
		return NewTesseractRecognizer(cfg.OCR.Concurrency, log), nil
	default:
		return nil, nil
	}
}

const transcribePrompt = "Transcribe all readable text of this document, page by page, in reading order. Return plain text only, without commentary or formatting."

type geminiRecognizer struct {
	client *genai.Client
	model  string
}

func NewGeminiRecognizer(client *genai.Client, model string) Recognizer {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiRecognizer{client: client, model: model}
}

func (g *geminiRecognizer) Name() string { return config.OCRGemini }

func (g *geminiRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, "application/pdf"),
			genai.NewPartFromText(transcribePrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcription failed: %w", geminiCallError(err))
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, logger.TruncateForLog(string(exitErr.Stderr), logger.DefaultPreviewLength))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// tesseractRecognizer rasterizes pages with pdftoppm and OCRs them with tesseract, several pages at a time.
type tesseractRecognizer struct {
	concurrency int
	resolution  int
	run         commandRunner
	log         *zap.Logger
}

func NewTesseractRecognizer(concurrency int, log *zap.Logger) Recognizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &tesseractRecognizer{
		concurrency: concurrency,
		resolution:  200,
		run:         execRunner,
		log:         logger.OrNop(log),
	}
}

func (t *tesseractRecognizer) Name() string { return config.OCRTesseract }

func (t *tesseractRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "vericv-ocr-")
	if err != nil {
		return "", fmt.Errorf("failed to create ocr workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if _, err := t.run(ctx, "pdftoppm", "-r", fmt.Sprint(t.resolution), "-png", path, prefix); err != nil {
		return "", err
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to list rendered pages: %w", err)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order
	sort.Strings(pages)
	t.log.Debug("ocr pages rendered", zap.String("file", filepath.Base(path)), zap.Int("pages", len(pages)))

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, page := range pages {
		g.Go(func() error {
			out, err := t.run(gctx, "tesseract", page, "stdout")
			if err != nil {
				return err
			}
			texts[i] = strings.TrimSpace(string(out))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return strings.Join(texts, "\n\n"), nil
}
