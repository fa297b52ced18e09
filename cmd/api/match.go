package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

var matchFlags struct {
	cv       string
	jd       string
	position string
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a resume file against a job description file and print the report as JSON",
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchFlags.cv, "cv", "", "resume file (.pdf, .docx or .txt)")
	matchCmd.Flags().StringVar(&matchFlags.jd, "jd", "", "job description file (.pdf, .docx or .txt)")
	matchCmd.Flags().StringVar(&matchFlags.position, "position", "", "position title")
	_ = matchCmd.MarkFlagRequired("cv")
	_ = matchCmd.MarkFlagRequired("jd")
}

func runMatch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	ctx := cmd.Context()

	recognizer, err := services.NewRecognizer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	store := services.NewTempStore(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	extractor := services.NewExtractorService(store, recognizer, cfg.Storage.TextLimit, log)

	resumeText, err := extractor.ExtractFile(ctx, matchFlags.cv)
	if err != nil {
		return err
	}
	jobDescription, err := extractor.ExtractFile(ctx, matchFlags.jd)
	if err != nil {
		return err
	}

	var report *models.MatchReport
	generator, err := services.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		log.Warn("⚠️ model unavailable, using heuristic match", zap.Error(err))
		if jobDescription == "" {
			return errors.New("job description is empty")
		}
		heuristic := services.HeuristicMatch(resumeText, jobDescription, matchFlags.position)
		report = &heuristic
	} else {
		client := services.NewModelClient(generator, cfg.LLM, log)
		report, err = services.NewMatchService(client, nil, cfg.LLM, log).Match(ctx, "", services.MatchInput{
			ResumeText:     resumeText,
			JobDescription: jobDescription,
			Position:       matchFlags.position,
		})
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
