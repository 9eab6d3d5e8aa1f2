package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
)

// maxEmbedChars keeps a single embedding input under the model token limit.
const maxEmbedChars = 40000

type GeminiService interface {
	Embedder
	TextGenerator
}

type GeminiOptions struct {
	APIKey     string
	Model      string
	EmbedModel string
	// RPM caps requests per minute across all calls. Zero disables limiting.
	RPM int
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	limiter    *rate.Limiter
	log        *zap.Logger
}

func NewGeminiService(ctx context.Context, opts GeminiOptions, log *zap.Logger) (GeminiService, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-004"
	}

	return &geminiService{
		client:     client,
		modelName:  opts.Model,
		embedModel: opts.EmbedModel,
		limiter:    newLimiter(opts.RPM),
		log:        logger.WithComponent(log, "gemini").With(zap.String(logger.FieldModel, opts.Model)),
	}, nil
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
}

// Model implements Embedder.
func (g *geminiService) Model() string {
	return g.embedModel
}

// Embed implements Embedder.
func (g *geminiService) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	defer func(started time.Time) {
		metrics.ObserveInference(g.embedModel, "embed", started, err)
	}(time.Now())

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.Text(truncateUTF8(text, maxEmbedChars))...)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperror.ModelInference("gemini embed", err)
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		return nil, apperror.ModelInference("gemini embed", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, apperror.ModelInference("gemini embed", fmt.Errorf("expected %d embeddings", len(texts)))
	}

	vectors = make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// GenerateText implements TextGenerator.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (text string, err error) {
	defer func(started time.Time) {
		metrics.ObserveInference(g.modelName, "generate", started, err)
	}(time.Now())

	if err := g.limiter.Wait(ctx); err != nil {
		return "", apperror.ModelInference("gemini generate", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.log.Warn("generate content failed", zap.Error(err))
		return "", apperror.ModelInference("gemini generate", err)
	}
	if resp == nil {
		return "", apperror.ModelInference("gemini generate", errors.New("nil response"))
	}

	text = resp.Text()
	if text == "" {
		// Fall back to whatever parts the candidates carry.
		var parts []string
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					parts = append(parts, part.Text)
				}
			}
		}
		if len(parts) == 0 {
			return "", apperror.ModelInference("gemini generate", errors.New("no text content in response"))
		}
		g.log.Debug("using candidate parts as response text", zap.Int("parts", len(parts)))
		text = strings.Join(parts, "\n")
	}

	g.log.Debug("response received", zap.Int("chars", len(text)))
	return text, nil
}

// truncateUTF8 cuts text to at most limit bytes without splitting a rune.
func truncateUTF8(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
