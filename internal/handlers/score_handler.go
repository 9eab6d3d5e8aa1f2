package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/services"
	"alfredoptarigan/interview-analyzer/internal/validation"
)

type ScoreHandler struct {
	pipeline    services.Pipeline
	maxFileSize int64
	log         *zap.Logger
}

func NewScoreHandler(pipeline services.Pipeline, maxFileSize int64, log *zap.Logger) *ScoreHandler {
	return &ScoreHandler{
		pipeline:    pipeline,
		maxFileSize: maxFileSize,
		log:         logger.WithComponent(log, "score-handler"),
	}
}

// HandleScoreCV handles POST /score-cv. The profile comes either as the JSON
// body or as a "profile" file in a multipart form.
func (h *ScoreHandler) HandleScoreCV(c *fiber.Ctx) error {
	payload, err := h.readPayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := validation.ValidateProfile(payload); err != nil {
		return respondError(c, err)
	}

	var profile models.CandidateProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	scored, err := h.pipeline.ScoreProfile(&profile)
	if err != nil {
		return respondError(c, err)
	}

	body, err := models.Marshal(scored)
	if err != nil {
		h.log.Error("failed to encode scored profile", zap.Error(err))
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *ScoreHandler) readPayload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	file, err := c.FormFile("profile")
	if err != nil {
		return nil, fmt.Errorf("multipart form must carry a 'profile' JSON file")
	}
	if file.Size > h.maxFileSize {
		return nil, fmt.Errorf("profile file too large. Max size: %d bytes", h.maxFileSize)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	defer f.Close()

	return io.ReadAll(f)
}
