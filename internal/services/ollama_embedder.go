package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
)

type OllamaOptions struct {
	URL     string
	Model   string
	Timeout time.Duration
}

type ollamaEmbedder struct {
	client *api.Client
	model  string
	log    *zap.Logger
}

// NewOllamaEmbedder builds an Embedder backed by a local Ollama server.
// The default model is all-minilm, a MiniLM sentence encoder.
func NewOllamaEmbedder(opts OllamaOptions, log *zap.Logger) (Embedder, error) {
	if opts.URL == "" {
		opts.URL = "http://localhost:11434"
	}
	if opts.Model == "" {
		opts.Model = "all-minilm"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}

	return &ollamaEmbedder{
		client: api.NewClient(base, &http.Client{Timeout: opts.Timeout}),
		model:  opts.Model,
		log:    logger.WithComponent(log, "ollama").With(zap.String(logger.FieldModel, opts.Model)),
	}, nil
}

// Model implements Embedder.
func (o *ollamaEmbedder) Model() string {
	return o.model
}

// Embed implements Embedder.
func (o *ollamaEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	defer func(started time.Time) {
		metrics.ObserveInference(o.model, "embed", started, err)
	}(time.Now())

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: texts,
	})
	if err != nil {
		o.log.Warn("embed request failed", zap.Int("inputs", len(texts)), zap.Error(err))
		return nil, apperror.ModelInference("ollama embed", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, apperror.ModelInference("ollama embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}

	return resp.Embeddings, nil
}
