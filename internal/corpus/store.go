package corpus

import "vatcompanion/internal/domain"

// SourceStats summarises what one configured source contributed to the store.
type SourceStats struct {
	Label    string
	Location string
	Rows     int
	Dropped  int
}

// Store is the immutable in-memory corpus. It is safe for concurrent readers.
type Store struct {
	chunks    []domain.Chunk
	dimension int
	stats     []SourceStats
}

// NewStore builds a store directly from chunks. All chunks must share one dimension.
func NewStore(chunks []domain.Chunk) (*Store, error) {
	s := &Store{}
	for i := range chunks {
		if !s.accept(chunks[i]) {
			return nil, &LoadError{Location: "memory", Err: dimensionError(i, s.dimension, len(chunks[i].Embedding))}
		}
	}
	return s, nil
}

func (s *Store) accept(c domain.Chunk) bool {
	if s.dimension == 0 {
		s.dimension = len(c.Embedding)
	} else if len(c.Embedding) != s.dimension {
		return false
	}
	s.chunks = append(s.chunks, c)
	return true
}

// Chunks returns the loaded chunks in corpus order. Callers must not modify them.
func (s *Store) Chunks() []domain.Chunk { return s.chunks }

// Len returns the number of chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Dimension returns the embedding length shared by every chunk, or 0 when empty.
func (s *Store) Dimension() int { return s.dimension }

// Stats returns per-source load statistics in configured order.
func (s *Store) Stats() []SourceStats { return s.stats }
