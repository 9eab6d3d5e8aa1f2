package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
)

// EmotionLabels is the closed label set of the emotion classifier, in output order.
var EmotionLabels = []string{"joy", "sadness", "anger", "fear", "surprise", "neutral", "stress"}

// emotionConcurrency bounds the in-flight classification requests of one call.
const emotionConcurrency = 4

type emotionClassifier struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	labels        []string
	log           *zap.Logger
}

// NewEmotionClassifier classifies messages by prompting a generative model
// for a distribution over EmotionLabels.
func NewEmotionClassifier(generator TextGenerator, log *zap.Logger) EmotionClassifier {
	return &emotionClassifier{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		labels:        EmotionLabels,
		log:           logger.WithComponent(log, "emotion-classifier"),
	}
}

// ClassifyEmotions implements EmotionClassifier. Each message gets its own
// prompt so no message is scored with the others in view.
func (e *emotionClassifier) ClassifyEmotions(ctx context.Context, texts []string) ([][]models.LabelScore, error) {
	out := make([][]models.LabelScore, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(emotionConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			dist, err := e.classifyOne(gctx, text)
			if err != nil {
				return err
			}
			out[i] = dist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *emotionClassifier) classifyOne(ctx context.Context, text string) ([]models.LabelScore, error) {
	prompt := e.promptBuilder.BuildEmotionPrompt(text, e.labels)
	response, err := e.generator.GenerateText(ctx, prompt, 0)
	if err != nil {
		return nil, apperror.ModelInference("classify emotions", err)
	}

	var raw []models.LabelScore
	if err := json.Unmarshal([]byte(extractJSON(response)), &raw); err != nil {
		e.log.Warn("unparseable classifier output", zap.Int("chars", len(response)), zap.Error(err))
		return nil, apperror.ModelInference("classify emotions", fmt.Errorf("failed to parse classifier output: %w", err))
	}
	return e.normalize(raw), nil
}

// normalize projects a raw distribution onto the label set, in label order,
// summing to 1. Unknown labels are dropped and missing ones score 0.
func (e *emotionClassifier) normalize(dist []models.LabelScore) []models.LabelScore {
	scores := make(map[string]float64, len(e.labels))
	for _, ls := range dist {
		label := strings.ToLower(strings.TrimSpace(ls.Label))
		if ls.Score > 0 {
			scores[label] += ls.Score
		}
	}

	var sum float64
	for _, label := range e.labels {
		sum += scores[label]
	}

	out := make([]models.LabelScore, len(e.labels))
	for i, label := range e.labels {
		score := 1 / float64(len(e.labels))
		if sum > 0 {
			score = scores[label] / sum
		}
		out[i] = models.LabelScore{Label: label, Score: score}
	}
	return out
}
