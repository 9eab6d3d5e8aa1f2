package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
)

const reportSystemPrompt = "You are an experienced technical recruiter writing interview debriefs."

type OpenAIOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	RPM     int
}

type einoGenerator struct {
	chatModel model.BaseChatModel
	modelName string
	limiter   *rate.Limiter
	log       *zap.Logger
}

// NewOpenAIGenerator builds a TextGenerator on any OpenAI-compatible chat endpoint.
func NewOpenAIGenerator(ctx context.Context, opts OpenAIOptions, log *zap.Logger) (TextGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return newEinoGenerator(chatModel, opts.Model, newLimiter(opts.RPM), log), nil
}

func newEinoGenerator(chatModel model.BaseChatModel, modelName string, limiter *rate.Limiter, log *zap.Logger) *einoGenerator {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &einoGenerator{
		chatModel: chatModel,
		modelName: modelName,
		limiter:   limiter,
		log:       logger.WithComponent(log, "openai").With(zap.String(logger.FieldModel, modelName)),
	}
}

// GenerateText implements TextGenerator.
func (e *einoGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (text string, err error) {
	defer func(started time.Time) {
		metrics.ObserveInference(e.modelName, "generate", started, err)
	}(time.Now())

	if err := e.limiter.Wait(ctx); err != nil {
		return "", apperror.ModelInference("openai generate", err)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: reportSystemPrompt},
		{Role: schema.User, Content: prompt},
	}

	resp, err := e.chatModel.Generate(ctx, messages, model.WithTemperature(temperature))
	if err != nil {
		e.log.Warn("chat completion failed", zap.Error(err))
		return "", apperror.ModelInference("openai generate", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", apperror.ModelInference("openai generate", errors.New("empty completion"))
	}

	return strings.TrimSpace(resp.Content), nil
}
