package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/metrics"
	"alfredoptarigan/interview-analyzer/internal/models"
)

// StressThreshold is the score above which a stress-like emotion triggers
// the stress management query.
const StressThreshold = 0.6

var stressLabels = map[string]bool{"stress": true, "anxiety": true, "fear": true}

const embedBatchSize = 32

const (
	indexUnknown int32 = iota
	indexReady
	indexEmpty
)

type FeedbackRetriever interface {
	// EnsureIndex loads the persisted index or builds it from the knowledge
	// base. Only the first successful call does any work.
	EnsureIndex(ctx context.Context) error
	// Rebuild drops the index and builds it again, returning the chunk count.
	Rebuild(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, k int) ([]string, error)
	Retrieve(ctx context.Context, analysis *models.StructuredAnalysis) ([]string, error)
}

type RetrieverOptions struct {
	KnowledgeBasePath string
	ChunkSize         int
	ChunkOverlap      int
	TopK              int
}

type feedbackRetriever struct {
	store    VectorStore
	embedder Embedder
	loader   DocumentLoader
	chunker  TextChunker
	opts     RetrieverOptions
	log      *zap.Logger

	state atomic.Int32
	build singleflight.Group
	// buildMu serializes index builds across EnsureIndex and Rebuild.
	buildMu sync.Mutex
}

func NewFeedbackRetriever(
	store VectorStore,
	embedder Embedder,
	loader DocumentLoader,
	chunker TextChunker,
	opts RetrieverOptions,
	log *zap.Logger,
) FeedbackRetriever {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if opts.TopK <= 0 {
		opts.TopK = 1
	}
	if chunker == nil {
		chunker = NewTextChunker()
	}

	return &feedbackRetriever{
		store:    store,
		embedder: embedder,
		loader:   loader,
		chunker:  chunker,
		opts:     opts,
		log:      logger.WithComponent(log, "feedback-retriever"),
	}
}

// EnsureIndex implements FeedbackRetriever.
func (r *feedbackRetriever) EnsureIndex(ctx context.Context) error {
	if r.state.Load() != indexUnknown {
		return nil
	}

	_, err, _ := r.build.Do("ensure", func() (any, error) {
		r.buildMu.Lock()
		defer r.buildMu.Unlock()

		if r.state.Load() != indexUnknown {
			return nil, nil
		}

		n, err := r.store.Count(ctx)
		if err != nil {
			return nil, apperror.IndexUnavailable("load index", "vector store unreachable", err)
		}
		if n > 0 {
			r.log.Info("loaded persisted index", zap.Int("chunks", n))
			r.markBuilt(n)
			return nil, nil
		}

		n, err = r.buildIndex(ctx)
		if err != nil {
			return nil, err
		}
		r.markBuilt(n)
		return nil, nil
	})
	if err != nil {
		r.log.Error("index unavailable", zap.Error(err))
	}
	return err
}

// Rebuild implements FeedbackRetriever. A rebuild that overlaps an ensure
// waits for it and then builds again.
func (r *feedbackRetriever) Rebuild(ctx context.Context) (int, error) {
	v, err, _ := r.build.Do("rebuild", func() (any, error) {
		r.buildMu.Lock()
		defer r.buildMu.Unlock()

		n, err := r.buildIndex(ctx)
		if err != nil {
			return 0, err
		}
		r.markBuilt(n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	return n, nil
}

func (r *feedbackRetriever) markBuilt(chunks int) {
	metrics.IndexChunks.Set(float64(chunks))
	if chunks == 0 {
		r.log.Warn("knowledge base is empty, retrieval disabled", zap.String("path", r.opts.KnowledgeBasePath))
		r.state.Store(indexEmpty)
		return
	}
	r.state.Store(indexReady)
}

// buildIndex chunks and embeds the whole knowledge base before touching the
// store, so a failed build never leaves a partial index behind. An empty
// knowledge base clears the store.
func (r *feedbackRetriever) buildIndex(ctx context.Context) (int, error) {
	docs, err := r.loader.Load(r.opts.KnowledgeBasePath)
	if err != nil {
		return 0, apperror.IndexUnavailable("build index", "knowledge base unreadable", err)
	}

	var chunks []models.KnowledgeChunk
	for _, doc := range docs {
		for _, text := range r.chunker.ChunkText(doc.Text, r.opts.ChunkSize, r.opts.ChunkOverlap) {
			chunks = append(chunks, models.KnowledgeChunk{Text: text, Source: doc.Source})
		}
	}
	if len(chunks) == 0 {
		if err := r.store.Reset(ctx, 0); err != nil {
			return 0, apperror.IndexUnavailable("build index", "vector store reset failed", err)
		}
		return 0, nil
	}

	r.log.Info("building index",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.String(logger.FieldModel, r.embedder.Model()),
	)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, apperror.IndexUnavailable("build index", "embedding failed", err)
		}
		if len(vectors) != len(batch) {
			return 0, apperror.IndexUnavailable("build index", "embedding failed",
				fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors)))
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}
	}

	if err := r.store.Reset(ctx, len(chunks[0].Embedding)); err != nil {
		return 0, apperror.IndexUnavailable("build index", "vector store reset failed", err)
	}
	if err := r.store.Upsert(ctx, chunks); err != nil {
		// Leave an empty store so the next ensure builds again.
		if rerr := r.store.Reset(ctx, 0); rerr != nil {
			r.log.Error("failed to clear partial index", zap.Error(rerr))
		}
		return 0, apperror.IndexUnavailable("build index", "vector store write failed", err)
	}

	return len(chunks), nil
}

// Search implements FeedbackRetriever.
func (r *feedbackRetriever) Search(ctx context.Context, query string, k int) ([]string, error) {
	if err := r.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	if r.state.Load() == indexEmpty {
		return []string{}, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, asInference("embed query", err)
	}
	if len(vectors) != 1 {
		return nil, apperror.ModelInference("embed query", fmt.Errorf("expected 1 embedding, got %d", len(vectors)))
	}

	results, err := r.store.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, apperror.IndexUnavailable("search", "vector search failed", err)
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Text
	}
	return texts, nil
}

// Retrieve implements FeedbackRetriever. An unavailable index yields no
// feedback rather than an error.
func (r *feedbackRetriever) Retrieve(ctx context.Context, analysis *models.StructuredAnalysis) ([]string, error) {
	feedback := []string{}
	if err := r.EnsureIndex(ctx); err != nil {
		return feedback, nil
	}

	seen := map[string]bool{}
	for _, query := range BuildQueries(analysis) {
		texts, err := r.Search(ctx, query, r.opts.TopK)
		if err != nil {
			return nil, err
		}
		for _, text := range texts {
			if seen[text] {
				continue
			}
			seen[text] = true
			feedback = append(feedback, text)
		}
	}

	metrics.FeedbackSnippets.Observe(float64(len(feedback)))
	return feedback, nil
}

// BuildQueries derives the advisory queries for an analysis: one per distinct
// intent label in first-seen order, then the stress query if any stress-like
// emotion scores above StressThreshold.
func BuildQueries(analysis *models.StructuredAnalysis) []string {
	queries := []string{}
	prompts := NewPromptBuilder()
	if analysis == nil {
		return queries
	}

	seen := map[string]bool{}
	for _, intent := range analysis.IntentAnalysis {
		label := intent.Label
		if label == "" && len(intent.Labels) > 0 {
			label = intent.Labels[0]
		}
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		queries = append(queries, prompts.BuildIntentQuery(label))
	}

	if hasStress(analysis.SentimentAnalysis) {
		queries = append(queries, StressQuery)
	}
	return queries
}

func hasStress(sentiments [][]models.LabelScore) bool {
	for _, dist := range sentiments {
		for _, ls := range dist {
			if stressLabels[strings.ToLower(ls.Label)] && ls.Score > StressThreshold {
				return true
			}
		}
	}
	return false
}
