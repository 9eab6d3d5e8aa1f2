package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
)

const (
	payloadText   = "text"
	payloadSource = "source"
)

type qdrantStore struct {
	client         *qdrant.Client
	collectionName string
	log            *zap.Logger
}

// NewQdrantStore connects to Qdrant over gRPC. The port in urlStr is used as
// is; without one the gRPC default 6334 applies.
func NewQdrantStore(urlStr, apiKey, collectionName string, log *zap.Logger) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantStore{
		client:         client,
		collectionName: collectionName,
		log:            logger.WithComponent(log, "qdrant").With(zap.String("collection", collectionName)),
	}, nil
}

// Count implements VectorStore. A missing collection counts as empty.
func (q *qdrantStore) Count(ctx context.Context) (int, error) {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return 0, nil
	}

	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collectionName,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Reset implements VectorStore.
func (q *qdrantStore) Reset(ctx context.Context, dim int) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collectionName); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	// A missing collection counts as empty.
	if dim <= 0 {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("collection created", zap.Int("dimension", dim))
	return nil
}

// Upsert implements VectorStore.
func (q *qdrantStore) Upsert(ctx context.Context, chunks []models.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadText:   c.Text,
				payloadSource: c.Source,
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search implements VectorStore.
func (q *qdrantStore) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	results := []SearchResult{}
	if k <= 0 {
		return results, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	for _, point := range points {
		results = append(results, SearchResult{
			Text:   payloadString(point.Payload, payloadText),
			Source: payloadString(point.Payload, payloadSource),
			Score:  point.Score,
		})
	}
	return results, nil
}

// Close implements VectorStore.
func (q *qdrantStore) Close() error {
	return q.client.Close()
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
		return s.StringValue
	}
	return ""
}
