package assembler

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/domain"
)

func ranked(text string, score float64) domain.RankedResult {
	return domain.RankedResult{
		EmbeddedChunk: domain.EmbeddedChunk{
			Chunk: domain.Chunk{
				Text:   text,
				Source: domain.SourceRef{Path: "docs/ai/01-intro.md", Section: "ai", Title: "Intro"},
			},
		},
		Score: score,
	}
}

func TestAssembleNumbersAndAttributesBlocks(t *testing.T) {
	out := Assemble([]domain.RankedResult{
		ranked("First chunk text.", 0.91),
		ranked("Second chunk text.", 0.42),
	})

	assert.Contains(t, out, "[1] (91% match) [ai] Intro")
	assert.Contains(t, out, "[2] (42% match) [ai] Intro")
	assert.Contains(t, out, "\n\n---\n\n")
}

func TestAssembleTruncatesLongChunks(t *testing.T) {
	long := strings.Repeat("x", ExcerptChars+100)
	out := Assemble([]domain.RankedResult{ranked(long, 0.5)})

	assert.Contains(t, out, strings.Repeat("x", ExcerptChars)+"...")
	assert.NotContains(t, out, strings.Repeat("x", ExcerptChars+1))
}

func TestExcerptCutsAtRuneBoundary(t *testing.T) {
	text := strings.Repeat("é", 300) // 2 bytes per rune
	out := Excerpt(text, 151)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("é", 75)+"...", out)
}

func TestAssembleEmpty(t *testing.T) {
	assert.Equal(t, "", Assemble(nil))
}

func TestConfidenceRounding(t *testing.T) {
	assert.Contains(t, Assemble([]domain.RankedResult{ranked("t", 0.856)}), "(86% match)")
	assert.Contains(t, Assemble([]domain.RankedResult{ranked("t", 0.854)}), "(85% match)")
}

func TestLabelFallsBackToPath(t *testing.T) {
	assert.Equal(t, "docs/x.md", Label(domain.SourceRef{Path: "docs/x.md"}))
	assert.Equal(t, "Only Title", Label(domain.SourceRef{Path: "p", Title: "Only Title"}))
}

func TestPromptContainsQueryAndContext(t *testing.T) {
	p := Prompt("what is a sensor?", "CONTEXT BODY")
	assert.Contains(t, p, "QUESTION: what is a sensor?")
	assert.Contains(t, p, "CONTEXT BODY")
}

func TestFallbackQuotesRelevantLines(t *testing.T) {
	context := "Sensors convert physical signals into data.\nActuators move things.\nPlanning is separate."
	out := Fallback("what do sensors do", context)

	require.Contains(t, out, "Based on the documentation:")
	assert.Contains(t, out, "Sensors convert physical signals into data.")
	assert.NotContains(t, out, "Actuators move things.")
}

func TestFallbackNeverEmpty(t *testing.T) {
	out := Fallback("zzzz qqqq", "completely unrelated context body")
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "completely unrelated context body")
}

func TestFallbackBoundsExcerpt(t *testing.T) {
	context := strings.Repeat("y", 2000)
	out := Fallback("nomatch", context)
	assert.Contains(t, out, strings.Repeat("y", 500)+"...")
	assert.NotContains(t, out, strings.Repeat("y", 501))
}
