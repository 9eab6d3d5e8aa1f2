package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/bootstrap"
	"alfredoptarigan/interview-analyzer/internal/config"
	"alfredoptarigan/interview-analyzer/internal/handlers"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/repositories"
	"alfredoptarigan/interview-analyzer/internal/services"
)

const maxProfileSize = 1 << 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "interview-analyzer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return err
	}
	jobRepo := repositories.NewAnalysisJobRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Build(ctx, cfg, bootstrap.Options{}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Warn("failed to release services", zap.Error(err))
		}
	}()

	// A broken knowledge base degrades retrieval but does not block startup.
	if err := components.Retriever.EnsureIndex(ctx); err != nil {
		log.Warn("knowledge base index unavailable, continuing without feedback", zap.Error(err))
	}

	worker := services.NewWorker(jobRepo, components.Pipeline, services.WorkerOptions{
		Concurrency:  cfg.Worker.Concurrency,
		QueueSize:    cfg.Worker.QueueSize,
		JobTimeout:   cfg.Worker.JobTimeout,
		PollInterval: cfg.Worker.PollInterval,
		Retry:        bootstrap.RetryPolicy(cfg),
	}, log)
	worker.Start(ctx)
	defer worker.Stop()

	queue := services.NewJobQueue(jobRepo, worker)

	app := fiber.New(fiber.Config{
		AppName:      "Interview Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    maxProfileSize * 4,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")
	handlers.Register(api,
		handlers.NewScoreHandler(components.Pipeline, maxProfileSize, log),
		handlers.NewAnalysisHandler(queue, components.Pipeline, log),
		handlers.NewStatusHandler(queue),
	)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Interview Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/score-cv",
				"POST /api/v1/trigger-analysis",
				"GET /api/v1/analysis-status/:id",
				"POST /api/v1/analyze",
				"GET /metrics",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
