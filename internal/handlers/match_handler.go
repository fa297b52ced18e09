package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

type MatchHandler struct {
	match   services.MatchService
	resumes services.ResumeService
}

func NewMatchHandler(match services.MatchService, resumes services.ResumeService) *MatchHandler {
	return &MatchHandler{
		match:   match,
		resumes: resumes,
	}
}

// HandleMatch handles POST /match. The resume comes from the cv upload, a stored cv_id or resume_text.
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msgInvalidPayload,
		})
	}
	if err := req.Validate(); err != nil {
		field, msg := models.FirstValidationError(err)
		return services.NewValidationError(field, msg)
	}

	src := resumeSource{file: uploadedFile(c), cvID: req.CVID, text: req.ResumeText}
	if src.empty() {
		return services.NewValidationError("cv", msgMissingResume)
	}

	text, err := resolveResume(c, h.resumes, src)
	if err != nil {
		return err
	}

	report, err := h.match.Match(c.UserContext(), UserID(c), services.MatchInput{
		ResumeText:     text,
		JobDescription: req.JobDescription,
		Position:       req.Position,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}
