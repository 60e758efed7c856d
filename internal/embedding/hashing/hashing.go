package hashing

import (
	"context"
	"math"
	"strings"
	"unicode/utf16"
)

// ModelName tags snapshots and queries produced by this embedder so they
// are never scored against vectors from a real model.
const ModelName = "hashing-v1"

// Embedder is a deterministic pseudo-embedder for degraded mode: each
// word hashes to a 32-bit value that is spread across the vector through
// a sine mapping, and the result is L2-normalized. Output is dimensionally
// compatible and reproducible for the same input, but carries no semantic
// meaning; it exists so the retrieval path stays exercisable without an
// external embedding model.
type Embedder struct {
	dimension int
}

// New creates a pseudo-embedder producing vectors of the given dimension.
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &Embedder{dimension: dimension}
}

// Model returns the pseudo-model identifier.
func (e *Embedder) Model() string { return ModelName }

// Dimension returns the fixed output dimension.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed maps text to a deterministic vector. Text with no words yields
// the zero vector, which downstream scoring treats as similarity 0.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := hashWord(word)
		for i := 0; i < e.dimension; i++ {
			vec[i] += math.Sin(float64(h)*float64(i+1)) * 0.01
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// hashWord is the classic shift-and-subtract string hash truncated to
// signed 32 bits, matching how query vectors were derived historically so
// existing snapshots keep ranking identically. It walks UTF-16 code units
// (surrogate pairs hash as two units), as the historical derivation did.
func hashWord(word string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(word)) {
		h = (h << 5) - h + int32(u)
	}
	return h
}
