package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Register mounts the API endpoints on router.
func Register(router fiber.Router, score *ScoreHandler, analysis *AnalysisHandler, status *StatusHandler) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/score-cv", score.HandleScoreCV)
	router.Post("/trigger-analysis", analysis.HandleTriggerAnalysis)
	router.Post("/analyze", analysis.HandleAnalyze)
	router.Get("/analysis-status/:id", status.HandleGetStatus)
}
