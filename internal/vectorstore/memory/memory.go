package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/ranker"
)

// Storage is an in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

// Init resets the store. A zero dimension is taken from the first upserted chunk.
func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension < 0 {
		return goerr.New("invalid dimension", goerr.V("dimension", dimension))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for i, c := range chunks {
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) == 0 || len(c.Embedding) != dim {
			return goerr.Wrap(domain.ErrDimensionMismatch, "vector dimension mismatch",
				goerr.V("index", i),
				goerr.V("want", dim),
				goerr.V("got", len(c.Embedding)))
		}
	}
	s.dimension = dim
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.RankedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ranker.TopK(vector, s.chunks, topK)
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

// Len returns the number of stored chunks.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
