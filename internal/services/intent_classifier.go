package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
)

// IntentLabels is the closed candidate label set for zero-shot intent classification.
var IntentLabels = []string{
	"discusses technical experience",
	"expresses motivation",
	"asks a question",
	"expresses uncertainty or stress",
}

const (
	intentHypothesisTemplate = "The candidate %s."
	// Cosine similarities sit in a narrow band; a low temperature spreads them.
	intentTemperature = 0.1
)

type intentClassifier struct {
	embedder Embedder
	labels   []string
	log      *zap.Logger

	mu        sync.Mutex
	labelVecs [][]float32
}

// NewIntentClassifier builds an embedding-based zero-shot classifier: each
// text is scored against a hypothesis sentence per label.
func NewIntentClassifier(embedder Embedder, log *zap.Logger) IntentClassifier {
	return &intentClassifier{
		embedder: embedder,
		labels:   IntentLabels,
		log:      logger.WithComponent(log, "intent-classifier"),
	}
}

// labelVectors embeds the label hypotheses once. A failed warmup is not
// cached, so the next call tries again.
func (c *intentClassifier) labelVectors(ctx context.Context) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.labelVecs != nil {
		return c.labelVecs, nil
	}

	hypotheses := make([]string, len(c.labels))
	for i, label := range c.labels {
		hypotheses[i] = fmt.Sprintf(intentHypothesisTemplate, label)
	}
	vecs, err := c.embedder.Embed(ctx, hypotheses)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(c.labels) {
		return nil, fmt.Errorf("expected %d label embeddings, got %d", len(c.labels), len(vecs))
	}

	c.labelVecs = vecs
	c.log.Debug("label embeddings ready", zap.Int("labels", len(vecs)))
	return vecs, nil
}

// ClassifyIntents implements IntentClassifier.
func (c *intentClassifier) ClassifyIntents(ctx context.Context, texts []string) ([]models.IntentResult, error) {
	if len(texts) == 0 {
		return []models.IntentResult{}, nil
	}

	labelVecs, err := c.labelVectors(ctx)
	if err != nil {
		return nil, apperror.ModelInference("classify intents", err)
	}

	textVecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, apperror.ModelInference("classify intents", err)
	}
	if len(textVecs) != len(texts) {
		return nil, apperror.ModelInference("classify intents",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(textVecs)))
	}

	results := make([]models.IntentResult, len(texts))
	for i, vec := range textVecs {
		sims := make([]float64, len(labelVecs))
		for j, lv := range labelVecs {
			sim, err := CosineSimilarity(vec, lv)
			if err != nil {
				return nil, apperror.ModelInference("classify intents", err)
			}
			sims[j] = sim
		}
		results[i] = c.rank(texts[i], softmax(sims, intentTemperature))
	}
	return results, nil
}

func (c *intentClassifier) rank(text string, probs []float64) models.IntentResult {
	order := make([]int, len(c.labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	result := models.IntentResult{
		Sequence: text,
		Labels:   make([]string, len(order)),
		Scores:   make([]float64, len(order)),
	}
	for rank, idx := range order {
		result.Labels[rank] = c.labels[idx]
		result.Scores[rank] = probs[idx]
	}
	result.Label = result.Labels[0]
	result.Score = result.Scores[0]
	return result
}
