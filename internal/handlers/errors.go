package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/interview-analyzer/internal/apperror"
)

// statusFor maps a typed error kind to its HTTP status.
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperror.KindIndexUnavailable:
		return fiber.StatusServiceUnavailable
	case apperror.KindModelInference:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}
	if kind := apperror.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	if status == fiber.StatusInternalServerError {
		body["error"] = "internal server error"
	}
	return c.Status(status).JSON(body)
}
