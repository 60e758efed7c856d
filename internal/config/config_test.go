package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "rag/store.json", cfg.Store.Path)
	assert.Equal(t, 2000, cfg.Chunker.MaxChars)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, "template", cfg.Generator.Type)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  path: /var/lib/rag/store.json
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rag/store.json", cfg.Store.Path)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, 50, cfg.Chunker.MinChars)
	assert.Equal(t, ":5050", cfg.Server.Addr)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\t{nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadGeneratorDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
generator:
  type: openai
  openai:
    model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generator.OpenAI.APIKeyEnv)
	assert.Equal(t, 400, cfg.Generator.OpenAI.MaxTokens)
	assert.Equal(t, 60, cfg.Generator.OpenAI.TimeoutSecs)
}
