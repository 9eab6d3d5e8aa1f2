// Package bootstrap wires the analysis services from configuration. It is
// shared by the API server and the kbctl tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/config"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/services"
)

type Options struct {
	// RetryGeneration wraps the text generator in the configured retry
	// policy. Callers that retry whole jobs leave it off.
	RetryGeneration bool
}

// Components holds the constructed collaborators. Close releases them.
type Components struct {
	Embedder  services.Embedder
	Generator services.TextGenerator
	Store     services.VectorStore
	Retriever services.FeedbackRetriever
	Pipeline  services.Pipeline

	redis *redis.Client
	log   *zap.Logger
}

func RetryPolicy(cfg *config.Config) services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}
}

// Build constructs every collaborator selected by cfg.
func Build(ctx context.Context, cfg *config.Config, opts Options, log *zap.Logger) (*Components, error) {
	log = logger.OrNop(log)
	c := &Components{log: log}
	fail := func(err error) (*Components, error) {
		_ = c.Close()
		return nil, err
	}

	var gemini services.GeminiService
	geminiClient := func() (services.GeminiService, error) {
		if gemini != nil {
			return gemini, nil
		}
		g, err := services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			EmbedModel: cfg.Gemini.EmbedModel,
			RPM:        cfg.Gemini.RPM,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		gemini = g
		return g, nil
	}

	var err error
	if c.Embedder, err = c.buildEmbedder(cfg, geminiClient); err != nil {
		return fail(err)
	}
	if c.Generator, err = buildGenerator(ctx, cfg, geminiClient, log); err != nil {
		return fail(err)
	}
	if opts.RetryGeneration {
		c.Generator = services.WithRetry(c.Generator, RetryPolicy(cfg), log)
	}
	if c.Store, err = buildStore(cfg, log); err != nil {
		return fail(err)
	}

	c.Retriever = services.NewFeedbackRetriever(
		c.Store,
		c.Embedder,
		services.NewDocumentLoader(services.NewPDFParserService(), log),
		services.NewTextChunker(),
		services.RetrieverOptions{
			KnowledgeBasePath: cfg.KnowledgeBase.Path,
			ChunkSize:         cfg.KnowledgeBase.ChunkSize,
			ChunkOverlap:      cfg.KnowledgeBase.ChunkOverlap,
			TopK:              cfg.KnowledgeBase.TopK,
		},
		log,
	)

	analyzer := services.NewSignalAnalyzer(
		services.NewEmotionClassifier(c.Generator, log),
		services.NewIntentClassifier(c.Embedder, log),
		c.Embedder,
		log,
	)

	c.Pipeline = services.NewPipeline(
		services.NewSkillScoringEngine(time.Now),
		analyzer,
		c.Retriever,
		services.NewReportGenerator(c.Generator),
		log,
	)

	log.Info("services initialized",
		zap.String("embedder", cfg.Models.Embedder),
		zap.String("generator", cfg.Models.Generator),
		zap.String("vector_store", cfg.Models.VectorStore),
		zap.Bool("embedding_cache", c.redis != nil),
	)
	return c, nil
}

func (c *Components) buildEmbedder(cfg *config.Config, gemini func() (services.GeminiService, error)) (services.Embedder, error) {
	var embedder services.Embedder
	switch cfg.Models.Embedder {
	case config.BackendGemini:
		g, err := gemini()
		if err != nil {
			return nil, err
		}
		embedder = g
	default:
		e, err := services.NewOllamaEmbedder(services.OllamaOptions{
			URL:     cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout,
		}, c.log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama: %w", err)
		}
		embedder = e
	}

	if cfg.Redis.Address == "" {
		return embedder, nil
	}
	c.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return services.NewCachedEmbedder(embedder, c.redis, cfg.Redis.EmbeddingTTL, c.log), nil
}

func buildGenerator(ctx context.Context, cfg *config.Config, gemini func() (services.GeminiService, error), log *zap.Logger) (services.TextGenerator, error) {
	if cfg.Models.Generator == config.BackendOpenAI {
		g, err := services.NewOpenAIGenerator(ctx, services.OpenAIOptions{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			RPM:     cfg.OpenAI.RPM,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI generator: %w", err)
		}
		return g, nil
	}
	return gemini()
}

func buildStore(cfg *config.Config, log *zap.Logger) (services.VectorStore, error) {
	if cfg.Models.VectorStore == config.BackendQdrant {
		store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
		}
		return store, nil
	}

	store, err := services.NewLocalVectorStore(cfg.KnowledgeBase.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return store, nil
}

// Close releases the vector store and the Redis client.
func (c *Components) Close() error {
	var errs []error
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
