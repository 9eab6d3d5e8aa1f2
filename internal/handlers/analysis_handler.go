package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/services"
	"alfredoptarigan/interview-analyzer/internal/validation"
)

type AnalysisHandler struct {
	queue    services.JobQueue
	pipeline services.Pipeline
	log      *zap.Logger
}

func NewAnalysisHandler(queue services.JobQueue, pipeline services.Pipeline, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		queue:    queue,
		pipeline: pipeline,
		log:      logger.WithComponent(log, "analysis-handler"),
	}
}

func parseAnalysisRequest(c *fiber.Ctx) (*models.AnalysisRequest, error) {
	if err := validation.ValidateAnalysisRequest(c.Body()); err != nil {
		return nil, err
	}

	var req models.AnalysisRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// HandleTriggerAnalysis handles POST /trigger-analysis
func (h *AnalysisHandler) HandleTriggerAnalysis(c *fiber.Ctx) error {
	req, err := parseAnalysisRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	jobID, err := h.queue.Submit(c.UserContext(), req)
	if err != nil {
		h.log.Error("failed to submit analysis job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create analysis job",
		})
	}

	// Return job ID immediately
	return c.Status(fiber.StatusAccepted).JSON(models.TriggerAnalysisResponse{
		TaskID: jobID.String(),
	})
}

// HandleAnalyze handles POST /analyze. It runs the signal analysis and the
// retrieval inline and skips the report.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	req, err := parseAnalysisRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	signals, err := h.pipeline.AnalyzeSignals(c.UserContext(), req)
	if err != nil {
		h.log.Warn("synchronous analysis failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(signals)
}
