// Package ranker scores corpus chunks against a query vector by cosine similarity.
package ranker

import (
	"math"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
)

// DefaultK is used when the caller passes a non-positive K.
const DefaultK = 10

// Cosine returns the cosine of the angle between a and b.
// A zero-magnitude vector scores 0. Vectors must have equal length.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK returns the k chunks most similar to query, best first.
// Ties keep corpus order. Neither query nor chunks are modified.
func TopK(query []float64, chunks []domain.Chunk, k int) ([]domain.RankedResult, error) {
	if len(chunks) == 0 {
		return nil, goerr.Wrap(domain.ErrEmptyCorpus, "cannot rank")
	}
	if k <= 0 {
		k = DefaultK
	}
	for i := range chunks {
		if len(chunks[i].Embedding) != len(query) {
			return nil, goerr.Wrap(domain.ErrDimensionMismatch, "query vector does not match corpus",
				goerr.V("query_dim", len(query)),
				goerr.V("chunk_dim", len(chunks[i].Embedding)),
				goerr.V("chunk_index", i))
		}
	}

	scores := make([]float64, len(chunks))
	for i := range chunks {
		scores[i] = Cosine(query, chunks[i].Embedding)
	}
	idxs := argsortDesc(scores)
	if k > len(idxs) {
		k = len(idxs)
	}

	results := make([]domain.RankedResult, 0, k)
	for i := 0; i < k; i++ {
		j := idxs[i]
		results = append(results, domain.RankedResult{Chunk: chunks[j], Score: scores[j], Rank: i + 1})
	}
	return results, nil
}

// argsortDesc orders indexes by descending value, keeping index order on ties.
func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
