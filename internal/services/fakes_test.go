package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"alfredoptarigan/interview-analyzer/internal/models"
)

const fakeDim = 64

// bowEmbedder hashes lower-cased words into a fixed-size bag of words, so
// texts sharing words are close in cosine terms.
type bowEmbedder struct {
	calls atomic.Int32
	err   error
	// failOnCall makes only that call (1-based) return err.
	failOnCall int32
}

func (b *bowEmbedder) Model() string { return "bow" }

func (b *bowEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	n := b.calls.Add(1)
	if b.err != nil && (b.failOnCall == 0 || b.failOnCall == n) {
		return nil, b.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = bowVector(text)
	}
	return out, nil
}

func bowVector(text string) []float32 {
	vec := make([]float32, fakeDim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%fakeDim]++
	}
	return vec
}

type fakeGenerator struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
	// respond overrides response when set.
	respond func(prompt string) string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.respond != nil {
		return f.respond(prompt), nil
	}
	return f.response, nil
}

func (f *fakeGenerator) allPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeEmotions struct {
	calls  atomic.Int32
	result [][]models.LabelScore
	err    error
}

func (f *fakeEmotions) ClassifyEmotions(ctx context.Context, texts []string) ([][]models.LabelScore, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	out := make([][]models.LabelScore, len(texts))
	for i := range texts {
		out[i] = []models.LabelScore{{Label: "neutral", Score: 1}}
	}
	return out, nil
}

type fakeIntents struct {
	calls atomic.Int32
	err   error
}

func (f *fakeIntents) ClassifyIntents(ctx context.Context, texts []string) ([]models.IntentResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.IntentResult, len(texts))
	for i, text := range texts {
		out[i] = models.IntentResult{
			Sequence: text,
			Label:    IntentLabels[0],
			Score:    1,
			Labels:   []string{IntentLabels[0]},
			Scores:   []float64{1},
		}
	}
	return out, nil
}

type staticLoader struct {
	calls atomic.Int32
	docs  []models.KnowledgeDocument
	err   error
}

func (s *staticLoader) Load(dir string) ([]models.KnowledgeDocument, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}
