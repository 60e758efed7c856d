package assembler

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ragserver/internal/domain"
)

const (
	// ExcerptChars bounds the text carried per result into the context
	// block. Truncation is per chunk, not global: K stays small.
	ExcerptChars = 400

	blockSeparator = "\n\n---\n\n"
)

// Assemble formats ranked results into the context block handed to the
// generation step. Each result becomes a numbered, attributed block with
// a rounded confidence percentage and a bounded excerpt. Pure formatting,
// no I/O.
func Assemble(results []domain.RankedResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("[%d] (%d%% match) %s\n%s",
			i+1, r.Confidence(), Label(r.Source), Excerpt(r.Text, ExcerptChars)))
	}
	return strings.Join(blocks, blockSeparator)
}

// Label renders a human-readable source attribution.
func Label(src domain.SourceRef) string {
	switch {
	case src.Section != "" && src.Title != "":
		return fmt.Sprintf("[%s] %s", src.Section, src.Title)
	case src.Title != "":
		return src.Title
	default:
		return src.Path
	}
}

// Excerpt truncates text to at most limit bytes, backing up to the
// nearest rune boundary so a multi-byte character is never cut mid
// sequence, and appends a marker when anything was cut.
func Excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// Prompt wraps the query and assembled context for the generation step.
func Prompt(query, context string) string {
	return fmt.Sprintf(`You are an assistant answering questions about the documentation.
Use ONLY the content provided below. If the answer is not in the context, say you do not have that information.

CONTEXT:
%s

QUESTION: %s

ANSWER:`, context, query)
}

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Fallback builds a template answer from the assembled context when the
// generation step is unavailable or failing. Context lines are ranked by
// query-token overlap and the best few are quoted; if nothing overlaps,
// a bounded excerpt of the context is returned so the answer is never
// empty.
func Fallback(query, context string) string {
	queryTokens := tokenSet(query)
	var relevant []string
	for _, line := range strings.Split(context, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if overlaps(queryTokens, line) {
			relevant = append(relevant, line)
			if len(relevant) == 3 {
				break
			}
		}
	}
	if len(relevant) > 0 {
		return "Based on the documentation:\n\n" + strings.Join(relevant, "\n\n")
	}
	return "I found related material but could not generate a detailed answer. Here is the closest context:\n\n" +
		Excerpt(context, 500)
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func overlaps(queryTokens map[string]struct{}, line string) bool {
	for _, t := range wordRe.FindAllString(strings.ToLower(line), -1) {
		if _, ok := queryTokens[t]; ok {
			return true
		}
	}
	return false
}
