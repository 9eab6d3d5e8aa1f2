package services

import (
	"context"
	"fmt"
	"math"

	"alfredoptarigan/interview-analyzer/internal/models"
)

// Embedder turns texts into dense vectors. All vectors returned by one
// Embedder share the same dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// TextGenerator is a single-prompt generative model.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// EmotionClassifier returns one full emotion distribution per input text.
type EmotionClassifier interface {
	ClassifyEmotions(ctx context.Context, texts []string) ([][]models.LabelScore, error)
}

// IntentClassifier returns one zero-shot intent result per input text.
type IntentClassifier interface {
	ClassifyIntents(ctx context.Context, texts []string) ([]models.IntentResult, error)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector on either side yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// softmax over xs/temperature.
func softmax(xs []float64, temperature float64) []float64 {
	if temperature <= 0 {
		temperature = 1
	}
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	maxX := math.Inf(-1)
	for _, x := range xs {
		if x/temperature > maxX {
			maxX = x / temperature
		}
	}

	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x/temperature - maxX)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
