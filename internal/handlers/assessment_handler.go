package handlers

import (
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/d-alshehri/VeriCV-v2/internal/models"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

const topSkillsShown = 4

type AssessmentView struct {
	ID                  uuid.UUID      `json:"id"`
	Kind                string         `json:"kind"`
	Position            string         `json:"position"`
	AverageScore        float64        `json:"average_score"`
	SkillsAnalyzed      datatypes.JSON `json:"skills_analyzed"`
	TopSkills           []string       `json:"top_skills"`
	SkillsAnalyzedCount int            `json:"skills_analyzed_count"`
	CreatedAt           time.Time      `json:"created_at"`
}

func newAssessmentView(a models.Assessment) AssessmentView {
	return AssessmentView{
		ID:                  a.ID,
		Kind:                string(a.Kind),
		Position:            a.Position,
		AverageScore:        a.AverageScore,
		SkillsAnalyzed:      a.SkillsAnalyzed,
		TopSkills:           a.TopSkills(topSkillsShown),
		SkillsAnalyzedCount: a.SkillsAnalyzedCount(),
		CreatedAt:           a.CreatedAt,
	}
}

type AssessmentHandler struct {
	assessments services.AssessmentService
}

func NewAssessmentHandler(assessments services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// HandleList handles GET /assessments
func (h *AssessmentHandler) HandleList(c *fiber.Ctx) error {
	list, err := h.assessments.List(c.UserContext(), UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(slice.Map(list, func(_ int, src models.Assessment) AssessmentView {
		return newAssessmentView(src)
	}))
}

// HandleCreate handles POST /assessments
func (h *AssessmentHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msgInvalidPayload,
		})
	}
	if err := req.Validate(); err != nil {
		field, msg := models.FirstValidationError(err)
		return services.NewValidationError(field, msg)
	}

	assessment, err := h.assessments.Create(c.UserContext(), UserID(c), services.CreateAssessmentInput{
		Kind:           models.AssessmentKind(req.Kind),
		Position:       req.Position,
		AverageScore:   *req.AverageScore,
		SkillsAnalyzed: req.SkillsAnalyzed,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newAssessmentView(*assessment))
}
