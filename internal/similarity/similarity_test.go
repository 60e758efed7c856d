package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/domain"
)

func TestCosineSymmetry(t *testing.T) {
	a := []float64{0.3, -0.7, 0.2, 0.1}
	b := []float64{0.9, 0.1, -0.4, 0.5}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCosineSelfSimilarity(t *testing.T) {
	a := []float64{1.5, -2.25, 0.75}
	score, err := Cosine(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestCosineOrthogonal(t *testing.T) {
	score, err := Cosine([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestCosineZeroVector(t *testing.T) {
	a := []float64{0.2, 0.8, -0.1}
	z := []float64{0, 0, 0}

	score, err := Cosine(a, z)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = Cosine(z, z)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func records(vectors ...[]float64) []domain.EmbeddedChunk {
	recs := make([]domain.EmbeddedChunk, len(vectors))
	for i, v := range vectors {
		recs[i] = domain.EmbeddedChunk{
			Chunk:  domain.Chunk{Text: "chunk", Index: i},
			ID:     i,
			Vector: v,
		}
	}
	return recs
}

func TestRankDescendingTruncated(t *testing.T) {
	recs := records(
		[]float64{0, 1},   // orthogonal to query
		[]float64{1, 0},   // identical direction
		[]float64{1, 1},   // in between
		[]float64{-1, 0},  // opposite
		[]float64{2, 0.1}, // close
	)
	query := []float64{1, 0}

	results, err := Rank(recs, query, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, 1, results[0].ID)
}

func TestRankKLargerThanStore(t *testing.T) {
	recs := records([]float64{1, 0}, []float64{0, 1})
	results, err := Rank(recs, []float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRankStableTies(t *testing.T) {
	// Records 0 and 1 score identically; record 2 scores lower. With k=2
	// the tied pair must come back in insertion order and the low scorer
	// must be excluded.
	recs := records(
		[]float64{1, 0, 0},
		[]float64{1, 0, 0},
		[]float64{0.4, 0.6, 0},
	)
	query := []float64{1, 0, 0}

	results, err := Rank(recs, query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ID)
	assert.Equal(t, 1, results[1].ID)
}

func TestRankEmptyStore(t *testing.T) {
	results, err := Rank(nil, []float64{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankPropagatesDimensionMismatch(t *testing.T) {
	recs := records([]float64{1, 0, 0})
	_, err := Rank(recs, []float64{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
