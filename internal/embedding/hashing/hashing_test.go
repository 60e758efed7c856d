package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The pseudo-embedder is dimensionally valid, not semantically
// meaningful; these tests only pin determinism and vector shape.

func TestEmbedDeterministic(t *testing.T) {
	e := New(64)
	a, err := e.Embed(context.Background(), "robots learn from sensors")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "robots learn from sensors")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedDimension(t *testing.T) {
	e := New(128)
	vec, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, vec, 128)
	assert.Equal(t, 128, e.Dimension())
}

func TestEmbedUnitNorm(t *testing.T) {
	e := New(32)
	vec, err := e.Embed(context.Background(), "normalization check")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedEmptyTextYieldsZeroVector(t *testing.T) {
	e := New(16)
	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashWordUsesUTF16CodeUnits(t *testing.T) {
	// U+1F600 encodes as the surrogate pair 0xD83D 0xDE00:
	// 31*0xD83D + 0xDE00.
	assert.Equal(t, int32(1772899), hashWord("\U0001F600"))
	assert.Equal(t, int32('a'), hashWord("a"))
}

func TestEmbedDistinguishesInputs(t *testing.T) {
	e := New(64)
	a, _ := e.Embed(context.Background(), "first query")
	b, _ := e.Embed(context.Background(), "completely different words")
	assert.NotEqual(t, a, b)
}
