package handlers

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

// uploadFileKeys are the multipart field names clients use for the CV file, in lookup order.
var uploadFileKeys = []string{"cv", "file", "pdf", "cv_file", "resume", "document"}

// resumeSource is where a request takes its resume text from. The first non-empty source wins.
type resumeSource struct {
	file *multipart.FileHeader
	cvID string
	text string
}

func (s resumeSource) empty() bool {
	return s.file == nil && strings.TrimSpace(s.cvID) == "" && strings.TrimSpace(s.text) == ""
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// uploadedFile returns the first file found under one of uploadFileKeys.
func uploadedFile(c *fiber.Ctx) *multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	for _, key := range uploadFileKeys {
		if files := form.File[key]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func resolveResume(c *fiber.Ctx, resumes services.ResumeService, src resumeSource) (string, error) {
	switch {
	case src.file != nil:
		f, err := src.file.Open()
		if err != nil {
			return "", &services.ExtractionError{File: src.file.Filename, Cause: fmt.Errorf("failed to open upload: %w", err)}
		}
		defer f.Close()
		return resumes.FromUpload(c.UserContext(), src.file.Filename, f)
	case strings.TrimSpace(src.cvID) != "":
		return resumes.FromDocument(c.UserContext(), UserID(c), src.cvID)
	default:
		return strings.TrimSpace(src.text), nil
	}
}
