package domain

import "context"

// SourceRef identifies where a chunk came from: the document path relative
// to the docs root, plus the section directory and page title when known.
type SourceRef struct {
	Path    string `json:"path"`
	Section string `json:"section,omitempty"`
	Title   string `json:"title,omitempty"`
}

// Chunk is a bounded passage of cleaned document text used for indexing.
// Index is the 0-based position of the chunk within its source document;
// it is kept for traceability only and plays no part in ranking.
type Chunk struct {
	Text   string    `json:"text"`
	Source SourceRef `json:"source"`
	Index  int       `json:"index"`
}

// EmbeddedChunk is a chunk together with its embedding vector. The ID is
// unique within one store generation and stable only for that generation.
type EmbeddedChunk struct {
	Chunk
	ID     int       `json:"id"`
	Vector []float64 `json:"vector"`
}

// RankedResult is an embedded chunk annotated with a similarity score.
// Higher is more relevant; 0 for orthogonal or degenerate zero vectors.
type RankedResult struct {
	EmbeddedChunk
	Score float64 `json:"score"`
}

// Confidence returns the score as a rounded percentage for display.
func (r RankedResult) Confidence() int {
	pct := r.Score * 100
	if pct < 0 {
		pct = 0
	}
	return int(pct + 0.5)
}

// Embedder converts free text into a fixed-dimension numeric vector.
// Vectors produced by different models must never be compared to each other.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
	Model() string
}

// Generator turns a prompt (query plus retrieved context) into an answer.
// It is optional and best-effort; callers must be able to fall back to a
// template answer when it is unavailable or failing.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
