package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"alfredoptarigan/interview-analyzer/internal/models"
)

type SearchResult struct {
	Text   string
	Source string
	Score  float32
}

// VectorStore persists knowledge chunks and answers nearest-neighbour
// queries by cosine similarity.
type VectorStore interface {
	Count(ctx context.Context) (int, error)
	// Reset drops every stored chunk and prepares the store for vectors of dim.
	// A dim of zero leaves the store empty.
	Reset(ctx context.Context, dim int) error
	Upsert(ctx context.Context, chunks []models.KnowledgeChunk) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
	Close() error
}

const localIndexFile = "index.json"

type localIndex struct {
	Dimension int                     `json:"dimension"`
	Chunks    []models.KnowledgeChunk `json:"chunks"`
}

type localVectorStore struct {
	path string

	mu    sync.RWMutex
	index localIndex
}

// NewLocalVectorStore opens the file-backed store under dir, loading any
// index persisted by a previous run.
func NewLocalVectorStore(dir string) (VectorStore, error) {
	s := &localVectorStore{path: filepath.Join(dir, localIndexFile)}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read vector store: %w", err)
	}

	if err := json.Unmarshal(data, &s.index); err != nil {
		return nil, fmt.Errorf("failed to decode vector store %s: %w", s.path, err)
	}
	return s, nil
}

// Count implements VectorStore.
func (s *localVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index.Chunks), nil
}

// Reset implements VectorStore.
func (s *localVectorStore) Reset(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = localIndex{Dimension: dim}
	return s.persist()
}

// Upsert implements VectorStore.
func (s *localVectorStore) Upsert(ctx context.Context, chunks []models.KnowledgeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if s.index.Dimension == 0 {
			s.index.Dimension = len(c.Embedding)
		}
		if len(c.Embedding) != s.index.Dimension {
			return fmt.Errorf("chunk from %s has dimension %d, store expects %d", c.Source, len(c.Embedding), s.index.Dimension)
		}
	}

	s.index.Chunks = append(s.index.Chunks, chunks...)
	return s.persist()
}

// Search implements VectorStore.
func (s *localVectorStore) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.index.Chunks))
	if k <= 0 || len(s.index.Chunks) == 0 {
		return results, nil
	}
	if len(query) != s.index.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), s.index.Dimension)
	}

	for _, c := range s.index.Chunks {
		score, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Text: c.Text, Source: c.Source, Score: float32(score)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Close implements VectorStore.
func (s *localVectorStore) Close() error {
	return nil
}

// persist writes the index atomically. Callers hold the write lock.
func (s *localVectorStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create vector store directory: %w", err)
	}

	data, err := json.Marshal(s.index)
	if err != nil {
		return fmt.Errorf("failed to encode vector store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), localIndexFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write vector store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write vector store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace vector store: %w", err)
	}
	return nil
}
