package markdown

import (
	"path/filepath"
	"regexp"
	"strings"

	"ragserver/internal/domain"
)

var (
	frontMatterRe = regexp.MustCompile(`(?s)\A---.*?---\n`)
	headingRe     = regexp.MustCompile(`(?m)^#+\s*`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	fenceRe       = regexp.MustCompile("(?m)^```[a-zA-Z0-9_-]*\n?|```")
	inlineCodeRe  = regexp.MustCompile("`([^`]+)`")
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	titleRe       = regexp.MustCompile(`(?m)^title:\s*"?([^"\n]+)"?\s*$`)
	numPrefixRe   = regexp.MustCompile(`^\d+-`)
)

// Clean strips markdown structure from page content, leaving plain prose
// suitable for chunking: YAML front matter, heading markers, HTML comments
// and code-fence markers are removed, links are unwrapped to their text.
func Clean(content string) string {
	text := frontMatterRe.ReplaceAllString(content, "")
	text = htmlCommentRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = fenceRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractMeta derives a SourceRef for a document. The section is the name
// of the parent directory; the title comes from the front matter when
// present, otherwise from the filename with any numeric prefix stripped.
func ExtractMeta(relPath, content string) domain.SourceRef {
	section := filepath.Base(filepath.Dir(relPath))
	if section == "." {
		section = ""
	}

	title := ""
	if m := titleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		base := filepath.Base(relPath)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		base = numPrefixRe.ReplaceAllString(base, "")
		title = strings.ReplaceAll(base, "-", " ")
	}

	return domain.SourceRef{Path: relPath, Section: section, Title: title}
}
