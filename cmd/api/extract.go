package main

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/logger"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

var extractPreview int

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract resume text from local files and print a preview of each",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractPreview, "preview", 160, "number of characters of text to print per file")
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	successCount, failCount := 0, 0
	for _, path := range args {
		text, err := extractor.ExtractFile(ctx, path)
		if err != nil {
			log.Error("❌ extraction failed", zap.String("file", path), zap.Error(err))
			failCount++
			continue
		}
		successCount++

		fmt.Fprintf(cmd.OutOrStdout(), "📄 %s: %d characters\n%s\n\n",
			filepath.Base(path),
			utf8.RuneCountInString(text),
			logger.TruncateForLog(text, extractPreview),
		)
	}

	log.Info("✅ extraction finished", zap.Int("succeeded", successCount), zap.Int("failed", failCount))
	if failCount > 0 {
		return fmt.Errorf("%d of %d files failed", failCount, len(args))
	}
	return nil
}
