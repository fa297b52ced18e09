package services

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/logger"
)

// DefaultTextLimit bounds extracted text so prompts stay small.
const DefaultTextLimit = 4000

type ExtractorService interface {
	// ExtractUpload copies the upload to a temp file, extracts it and removes the copy before returning.
	ExtractUpload(ctx context.Context, filename string, r io.Reader) (string, error)
	ExtractFile(ctx context.Context, path string) (string, error)
}

type extractorService struct {
	store     TempStore
	ocr       Recognizer
	textLimit int
	log       *zap.Logger

	readPDF  func(path string) (string, error)
	readDocx func(path string) (string, error)
}

// NewExtractorService builds an extractor. ocr may be nil, in which case scanned PDFs yield empty text.
func NewExtractorService(store TempStore, ocr Recognizer, textLimit int, log *zap.Logger) ExtractorService {
	if textLimit <= 0 {
		textLimit = DefaultTextLimit
	}
	return &extractorService{
		store:     store,
		ocr:       ocr,
		textLimit: textLimit,
		log:       logger.OrNop(log),
		readPDF:   readPDFText,
		readDocx:  readDocxText,
	}
}

func (e *extractorService) ExtractUpload(ctx context.Context, filename string, r io.Reader) (string, error) {
	path, release, err := e.store.Save(filename, r)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return "", err
		}
		return "", &ExtractionError{File: filename, Cause: err}
	}
	defer release()

	return e.ExtractFile(ctx, path)
}

func (e *extractorService) ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err = e.extractPDF(ctx, path)
	case ".docx":
		text, err = e.readDocx(path)
	case ".txt":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &ExtractionError{File: filepath.Base(path), Cause: err}
	}

	return truncateRunes(normalizeWhitespace(text), e.textLimit), nil
}

func (e *extractorService) extractPDF(ctx context.Context, path string) (string, error) {
	text, err := e.readPDF(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	if e.ocr == nil {
		e.log.Warn("⚠️ PDF has no text layer and OCR is disabled", zap.String("file", filepath.Base(path)))
		return "", nil
	}

	e.log.Info("🔍 PDF has no text layer, running OCR",
		zap.String("file", filepath.Base(path)),
		zap.String("provider", e.ocr.Name()),
	)
	ocrDocumentsTotal.WithLabelValues(e.ocr.Name()).Inc()

	text, err = e.ocr.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}

// readPDFText concatenates the text layer of every page.
func readPDFText(path string) (text string, err error) {
	// ledongthuc/pdf panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// readDocxText reads the paragraphs of word/document.xml.
func readDocxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %w", err)
		}
		defer rc.Close()
		return docxParagraphs(rc)
	}
	return "", errors.New("no document.xml found in docx")
}

func docxParagraphs(r io.Reader) (string, error) {
	var (
		b      strings.Builder
		inText bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n\s*\n+`)
)

func normalizeWhitespace(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
