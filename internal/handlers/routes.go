package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Quiz        *QuizHandler
	Match       *MatchHandler
	Assessments *AssessmentHandler
	Verifier    TokenVerifier
}

// Register mounts the API under /api/v1. Health and metrics stay outside the auth boundary.
func Register(app *fiber.App, h Handlers) {
	app.Use(Metrics())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	secured := api.Group("", Auth(h.Verifier))

	secured.Get("/quiz/generate", h.Quiz.HandleGenerate)
	secured.Post("/ai/generate-questions", h.Quiz.HandleGenerateQuestions)
	secured.Post("/ai/submit", h.Quiz.HandleSubmit)

	secured.Post("/match", h.Match.HandleMatch)

	secured.Get("/assessments", h.Assessments.HandleList)
	secured.Post("/assessments", h.Assessments.HandleCreate)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "VeriCV assessment API",
			"version": "2.0.0",
			"endpoints": []string{
				"GET /api/v1/quiz/generate",
				"POST /api/v1/ai/generate-questions",
				"POST /api/v1/ai/submit",
				"POST /api/v1/match",
				"GET /api/v1/assessments",
				"POST /api/v1/assessments",
			},
		})
	})
}
