package ingest

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ragserver/internal/chunker"
	"ragserver/internal/domain"
	"ragserver/internal/markdown"
)

// Pipeline walks a docs tree and turns every markdown page into chunks
// ready for embedding. Re-running it over an unchanged tree produces the
// same chunks in the same order; re-ingestion always regenerates chunks
// wholesale, there is no partial update.
type Pipeline struct {
	chunker *chunker.Chunker
	logger  *slog.Logger
}

// New creates an ingestion pipeline around the given chunker.
func New(c *chunker.Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{chunker: c, logger: logger}
}

// Run collects chunks from all .md/.mdx files under docsDir, in lexical
// walk order. A file that fails to read or yields zero chunks is logged
// and skipped; it never aborts the run.
func (p *Pipeline) Run(docsDir string) ([]domain.Chunk, error) {
	files, err := markdownFiles(docsDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no markdown files under %s", docsDir)
	}

	var all []domain.Chunk
	for _, path := range files {
		chunks, err := p.ingestFile(docsDir, path)
		if err != nil {
			p.logger.Warn("skipping document", "path", path, "error", err)
			continue
		}
		if len(chunks) == 0 {
			p.logger.Debug("document yielded no chunks", "path", path)
			continue
		}
		p.logger.Info("ingested document", "path", path, "chunks", len(chunks))
		all = append(all, chunks...)
	}
	return all, nil
}

func (p *Pipeline) ingestFile(docsDir, path string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	rel, err := filepath.Rel(docsDir, path)
	if err != nil {
		rel = path
	}

	content := string(data)
	source := markdown.ExtractMeta(rel, content)
	cleaned := markdown.Clean(content)
	return p.chunker.Chunk(cleaned, source), nil
}

// markdownFiles returns all .md and .mdx paths under dir in walk order.
func markdownFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".md" || ext == ".mdx" {
			files = append(files, path)
		}
		return nil
	})
	return files, errors.Wrapf(err, "walk %s", dir)
}
