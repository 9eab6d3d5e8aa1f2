package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/interview-analyzer/internal/repositories"
	"alfredoptarigan/interview-analyzer/internal/services"
)

type StatusHandler struct {
	queue services.JobQueue
}

func NewStatusHandler(queue services.JobQueue) *StatusHandler {
	return &StatusHandler{
		queue: queue,
	}
}

// HandleGetStatus handles GET /analysis-status/:id
func (h *StatusHandler) HandleGetStatus(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID format",
		})
	}

	status, err := h.queue.GetStatus(c.UserContext(), jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return respondError(c, err)
	}

	return c.JSON(status)
}
