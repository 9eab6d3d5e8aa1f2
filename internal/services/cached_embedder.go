package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
)

type cachedEmbedder struct {
	next  Embedder
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedEmbedder memoizes embeddings in Redis keyed by model and text hash.
// The cache is best effort: Redis failures fall through to the wrapped embedder.
func NewCachedEmbedder(next Embedder, client *redis.Client, ttl time.Duration, log *zap.Logger) Embedder {
	return &cachedEmbedder{
		next:  next,
		redis: client,
		ttl:   ttl,
		log:   logger.WithComponent(log, "embedding-cache"),
	}
}

// Model implements Embedder.
func (c *cachedEmbedder) Model() string {
	return c.next.Model()
}

func (c *cachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", c.next.Model(), hex.EncodeToString(sum[:]))
}

// Embed implements Embedder.
func (c *cachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
	}

	vectors := make([][]float32, len(texts))
	var missing []int

	cached, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("cache lookup failed", zap.Error(err))
		cached = make([]any, len(texts))
	}
	for i, v := range cached {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			missing = append(missing, i)
			continue
		}
		vectors[i] = vec
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	toEmbed := make([]string, len(missing))
	for j, i := range missing {
		toEmbed[j] = texts[i]
	}
	fresh, err := c.next.Embed(ctx, toEmbed)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, apperror.ModelInference("embed", fmt.Errorf("expected %d embeddings, got %d", len(missing), len(fresh)))
	}

	pipe := c.redis.Pipeline()
	for j, i := range missing {
		vectors[i] = fresh[j]
		data, err := json.Marshal(fresh[j])
		if err != nil {
			continue
		}
		pipe.Set(ctx, keys[i], data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}

	c.log.Debug("embedded texts", zap.Int("hits", len(texts)-len(missing)), zap.Int("misses", len(missing)))
	return vectors, nil
}
