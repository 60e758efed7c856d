package openai

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"ragserver/internal/domain"
)

// Config configures the OpenAI-compatible embeddings client. Works with
// any provider exposing the /embeddings endpoint (openai, ollama, etc).
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// Client produces embeddings through an OpenAI-compatible API.
type Client struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	batchSize int
	dimension int
}

// NewClient creates an embeddings client. The API key is read from the
// configured environment variable.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	clientConfig := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		batchSize: cfg.BatchSize,
	}, nil
}

// Model returns the embedding model identifier recorded in snapshots.
func (c *Client) Model() string { return c.model }

// Dimension returns the vector dimension, known after the first call.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in API batches, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, errors.Wrap(domain.ErrEmbeddingFailed, err.Error())
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Wrapf(domain.ErrEmbeddingFailed,
			"expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		normalize(vec)
		if c.dimension == 0 {
			c.dimension = len(vec)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// normalize scales the vector to unit length in place. Normalized vectors
// make cosine similarity a plain dot product and keep snapshot scores in
// a comparable range.
func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
