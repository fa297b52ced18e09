package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/logger"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

const (
	msgCVNotFound      = "CV not found"
	msgExtraction      = "Could not read text from the uploaded document"
	msgModelBusy       = "The AI service is busy, please try again in a moment"
	msgModelFailed     = "The AI service failed to respond"
	msgInternal        = "Internal server error"
	msgInvalidPayload  = "Invalid request payload"
	msgMissingResume   = "Upload a CV file, or send cv_id or resume text"
	msgUnauthenticated = "Invalid or missing token"
)

// statusFor maps a handler error to its HTTP status and the message shown to the client.
// Upstream bodies and causes are never part of the message.
func statusFor(err error) (int, fiber.Map) {
	var (
		validationErr *services.ValidationError
		extractionErr *services.ExtractionError
		modelErr      *services.ModelCallError
		fiberErr      *fiber.Error
	)

	switch {
	case errors.As(err, &validationErr):
		body := fiber.Map{"error": validationErr.Error()}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		return fiber.StatusBadRequest, body
	case errors.Is(err, services.ErrCVNotFound):
		return fiber.StatusNotFound, fiber.Map{"error": msgCVNotFound}
	case errors.As(err, &extractionErr):
		return fiber.StatusUnprocessableEntity, fiber.Map{"error": msgExtraction}
	case errors.As(err, &modelErr):
		if modelErr.Exhausted {
			return fiber.StatusBadGateway, fiber.Map{"error": msgModelBusy}
		}
		return fiber.StatusBadGateway, fiber.Map{"error": msgModelFailed}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiber.Map{"error": fiberErr.Message}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"error": msgInternal}
	}
}

// ErrorHandler is the fiber error handler for the API.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = logger.OrNop(log)
	return func(c *fiber.Ctx, err error) error {
		code, body := statusFor(err)
		body["code"] = code

		if code >= fiber.StatusInternalServerError {
			log.Error("❌ request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(body)
	}
}
