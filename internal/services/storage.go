package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".txt":  {},
}

// TempStore keeps short-lived copies of uploads on disk for the extractors that need a file path.
type TempStore interface {
	EnsureDir() error
	// Save copies r to a new file. The returned release func removes it and is safe to call more than once.
	Save(filename string, r io.Reader) (path string, release func(), err error)
	Path(filename string) string
}

type tempStore struct {
	uploadPath  string
	maxFileSize int64
}

func NewTempStore(uploadPath string, maxFileSize int64) TempStore {
	return &tempStore{
		uploadPath:  uploadPath,
		maxFileSize: maxFileSize,
	}
}

func (s *tempStore) EnsureDir() error {
	if err := os.MkdirAll(s.uploadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

func (s *tempStore) Save(filename string, r io.Reader) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", nil, NewValidationError("file", fmt.Sprintf("unsupported file type %q, expected .pdf, .docx or .txt", ext))
	}
	if err := s.EnsureDir(); err != nil {
		return "", nil, err
	}

	path := filepath.Join(s.uploadPath, fmt.Sprintf("upload_%s%s", uuid.New().String(), ext))
	release := func() { _ = os.Remove(path) }

	dst, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	src := r
	if s.maxFileSize > 0 {
		src = io.LimitReader(r, s.maxFileSize+1)
	}
	written, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		release()
		return "", nil, fmt.Errorf("failed to save upload: %w", copyErr)
	case closeErr != nil:
		release()
		return "", nil, fmt.Errorf("failed to save upload: %w", closeErr)
	case s.maxFileSize > 0 && written > s.maxFileSize:
		release()
		return "", nil, NewValidationError("file", fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize))
	}

	return path, release, nil
}

func (s *tempStore) Path(filename string) string {
	return filepath.Join(s.uploadPath, filename)
}
