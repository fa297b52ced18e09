package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

type QuizHandler struct {
	quiz    services.QuizService
	resumes services.ResumeService
}

func NewQuizHandler(quiz services.QuizService, resumes services.ResumeService) *QuizHandler {
	return &QuizHandler{
		quiz:    quiz,
		resumes: resumes,
	}
}

// HandleGenerate handles GET /quiz/generate
func (h *QuizHandler) HandleGenerate(c *fiber.Ctx) error {
	src := resumeSource{cvID: c.Query("cv_id"), text: c.Query("cv_text")}

	text, err := resolveResume(c, h.resumes, src)
	if err != nil {
		return err
	}

	result, err := h.quiz.GenerateQuiz(c.UserContext(), services.QuizInput{
		ResumeText:     text,
		RequestedCount: c.Query("count"),
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleGenerateQuestions handles POST /ai/generate-questions with either a multipart upload or a JSON body.
func (h *QuizHandler) HandleGenerateQuestions(c *fiber.Ctx) error {
	var (
		src   resumeSource
		count string
	)

	if isMultipart(c) {
		src = resumeSource{file: uploadedFile(c), cvID: c.FormValue("cv_id"), text: c.FormValue("cv_text")}
		count = c.FormValue("count")
	} else {
		var req models.GenerateQuestionsRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": msgInvalidPayload,
				})
			}
		}
		src = resumeSource{cvID: req.CVID, text: req.CVText}
		count = req.RequestedCount()
	}

	if src.empty() {
		return services.NewValidationError("cv", msgMissingResume)
	}

	text, err := resolveResume(c, h.resumes, src)
	if err != nil {
		return err
	}

	result, err := h.quiz.GenerateQuiz(c.UserContext(), services.QuizInput{
		ResumeText:     text,
		RequestedCount: count,
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleSubmit handles POST /ai/submit
func (h *QuizHandler) HandleSubmit(c *fiber.Ctx) error {
	var req models.SubmitAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msgInvalidPayload,
		})
	}
	if err := req.Validate(); err != nil {
		field, msg := models.FirstValidationError(err)
		return services.NewValidationError(field, msg)
	}

	answers, err := models.ParseAnswers(req.Answers)
	if err != nil {
		return services.NewValidationError("answers", "must be a list or an object")
	}

	report, err := h.quiz.SubmitAnswers(c.UserContext(), UserID(c), services.SubmitInput{
		Answers:  answers,
		Position: req.Position,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}
