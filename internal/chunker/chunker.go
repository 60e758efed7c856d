package chunker

import (
	"regexp"
	"strings"

	"ragserver/internal/domain"
)

const (
	// DefaultMaxChars is the character budget per chunk, roughly 500
	// tokens at 4 chars/token.
	DefaultMaxChars = 2000

	// DefaultMinChars is the minimum viable chunk length. Shorter
	// segments are dropped, not padded or merged.
	DefaultMinChars = 50
)

var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Chunker splits cleaned text into sentence-aligned chunks bounded by a
// character budget. Whole sentences are accumulated and the running chunk
// is flushed when appending the next sentence would exceed the budget, so
// no sentence is ever split mid-way. Pure function of its inputs.
type Chunker struct {
	maxChars int
	minChars int
}

// New creates a chunker with the given character budget and minimum
// viable length. Non-positive values fall back to the defaults.
func New(maxChars, minChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Chunker{maxChars: maxChars, minChars: minChars}
}

// Split divides cleaned text into passages. Output order follows input
// order. Segments shorter than the minimum are discarded; a short or
// empty document yields zero chunks without error.
func (c *Chunker) Split(cleaned string) []string {
	var sentences []string
	end := 0
	for _, m := range sentenceRe.FindAllStringIndex(cleaned, -1) {
		sentences = append(sentences, cleaned[m[0]:m[1]])
		end = m[1]
	}
	// Text past the last terminator (a trailing list, code block or an
	// unterminated paragraph) is kept as a final pseudo-sentence.
	if tail := strings.TrimSpace(cleaned[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) == 0 {
		return nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var segments []string
	var current strings.Builder
	for _, sent := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sent) > c.maxChars {
			segments = append(segments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sent)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	chunks := segments[:0]
	for _, seg := range segments {
		if len(seg) < c.minChars {
			continue
		}
		chunks = append(chunks, seg)
	}
	if len(chunks) == 0 {
		return nil
	}
	return chunks
}

// Chunk splits cleaned text and attaches provenance. Index records the
// chunk's position within its source document.
func (c *Chunker) Chunk(cleaned string, source domain.SourceRef) []domain.Chunk {
	segments := c.Split(cleaned)
	chunks := make([]domain.Chunk, 0, len(segments))
	for i, text := range segments {
		chunks = append(chunks, domain.Chunk{Text: text, Source: source, Index: i})
	}
	return chunks
}
