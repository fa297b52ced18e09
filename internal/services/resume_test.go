package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories/mocks"
)

func newTestResumeService(t *testing.T) (ResumeService, *mocks.MockDocumentRepository, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewTempStore(dir, 1<<20)
	extractor := NewExtractorService(store, nil, DefaultTextLimit, nil)
	repo := mocks.NewMockDocumentRepository(gomock.NewController(t))
	return NewResumeService(repo, extractor, store), repo, dir
}

func TestFromDocument_RelativePath(t *testing.T) {
	svc, repo, dir := newTestResumeService(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.txt"), []byte("  Go   developer\n\n\nKubernetes "), 0o600))

	id := uuid.New()
	repo.EXPECT().
		FindByID(gomock.Any(), id, "user-1").
		Return(&models.Document{ID: id, FilePath: "cv.txt"}, nil)

	text, err := svc.FromDocument(context.Background(), "user-1", " "+id.String()+" ")

	require.NoError(t, err)
	assert.Equal(t, "Go developer\nKubernetes", text)
}

func TestFromDocument_AbsolutePath(t *testing.T) {
	svc, repo, _ := newTestResumeService(t)
	path := filepath.Join(t.TempDir(), "elsewhere.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rust"), 0o600))

	repo.EXPECT().FindByID(gomock.Any(), gomock.Any(), "user-1").Return(&models.Document{FilePath: path}, nil)

	text, err := svc.FromDocument(context.Background(), "user-1", uuid.NewString())

	require.NoError(t, err)
	assert.Equal(t, "Rust", text)
}

func TestFromDocument_InvalidID(t *testing.T) {
	svc, _, _ := newTestResumeService(t)

	_, err := svc.FromDocument(context.Background(), "user-1", "not-a-uuid")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "cv_id", vErr.Field)
}

func TestFromDocument_NotFound(t *testing.T) {
	svc, repo, _ := newTestResumeService(t)
	repo.EXPECT().
		FindByID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, repositories.ErrNotFound)

	_, err := svc.FromDocument(context.Background(), "user-1", uuid.NewString())

	assert.ErrorIs(t, err, ErrCVNotFound)
}

func TestFromDocument_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestResumeService(t)
	dbErr := errors.New("connection reset")
	repo.EXPECT().FindByID(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, dbErr)

	_, err := svc.FromDocument(context.Background(), "user-1", uuid.NewString())

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrCVNotFound)
}

func TestFromDocument_MissingFile(t *testing.T) {
	svc, repo, _ := newTestResumeService(t)
	repo.EXPECT().
		FindByID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Document{FilePath: "gone.pdf"}, nil)

	_, err := svc.FromDocument(context.Background(), "user-1", uuid.NewString())

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "gone.pdf", exErr.File)
}

func TestFromUpload(t *testing.T) {
	svc, _, dir := newTestResumeService(t)

	text, err := svc.FromUpload(context.Background(), "resume.txt", strings.NewReader("SQL and Python"))

	require.NoError(t, err)
	assert.Equal(t, "SQL and Python", text)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
