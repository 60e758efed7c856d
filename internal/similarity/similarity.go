package similarity

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"ragserver/internal/domain"
)

// Cosine returns the cosine similarity of a and b: their dot product over
// the product of their Euclidean norms. Vectors of differing length are a
// data-integrity fault and yield ErrDimensionMismatch; silently truncating
// or padding would corrupt rankings. A zero-norm operand (the degenerate
// all-zero embedding) scores exactly 0 rather than dividing by zero.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(domain.ErrDimensionMismatch, "len %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every record against the query vector (full scan, no
// pruning), sorts descending by score and truncates to the first k.
// The sort is stable so exact ties keep their insertion order and result
// order stays deterministic across runs. O(N*D + N log N) per query,
// which is the intended trade-off for corpora of a few thousand chunks.
func Rank(records []domain.EmbeddedChunk, query []float64, k int) ([]domain.RankedResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	results := make([]domain.RankedResult, len(records))
	for i, rec := range records {
		score, err := Cosine(query, rec.Vector)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", rec.ID)
		}
		results[i] = domain.RankedResult{EmbeddedChunk: rec, Score: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}
