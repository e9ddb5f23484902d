// Package vectorstore abstracts where corpus vectors live and how the top-K are found.
package vectorstore

import (
	"context"

	"vatcompanion/internal/domain"
)

// Storage persists chunk vectors and supports similarity search.
// Chunks carry their own embedding; Search returns results ranked from 1.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.RankedResult, error)
	Clear(ctx context.Context) error
}
