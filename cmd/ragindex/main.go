package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ragserver/internal/chunker"
	"ragserver/internal/config"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hashing"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/ingest"
	"ragserver/internal/vectorstore"
)

type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

func main() {
	_ = godotenv.Load()

	var cfgPath, docsDir, outPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&docsDir, "docs", "", "Documentation root to index")
	flag.StringVar(&outPath, "out", "", "Snapshot output path (overrides config)")
	flag.Parse()
	if docsDir == "" {
		fmt.Println("Usage: ragindex [--config=config.yaml] --docs=./docs [--out=rag/store.json]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if outPath == "" {
		outPath = cfg.Store.Path
	}

	emb := buildEmbedder(cfg)

	pipeline := ingest.New(chunker.New(cfg.Chunker.MaxChars, cfg.Chunker.MinChars), nil)
	chunks, err := pipeline.Run(docsDir)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	if len(chunks) == 0 {
		log.Fatalf("no indexable content under %s", docsDir)
	}
	log.Printf("collected %d chunks from %s", len(chunks), docsDir)

	started := time.Now()
	vectors, err := embedAll(context.Background(), emb, chunks)
	if err != nil {
		log.Fatalf("embedding failed: %v", err)
	}
	log.Printf("embedded %d chunks in %s (model %s)", len(vectors), time.Since(started).Round(time.Millisecond), emb.Model())

	store := vectorstore.New(len(vectors[0]), emb.Model())
	for i, ch := range chunks {
		if err := store.Append(ch, vectors[i]); err != nil {
			log.Fatalf("append record %d: %v", i, err)
		}
	}
	if err := store.Save(outPath); err != nil {
		log.Fatalf("save snapshot: %v", err)
	}
	log.Printf("wrote %d records to %s", store.Len(), outPath)
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "hashing", "":
		dim := 0
		if cfg.Embedder.Hashing != nil {
			dim = cfg.Embedder.Hashing.Dimension
		}
		return hashing.New(dim)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}

func embedAll(ctx context.Context, emb domain.Embedder, chunks []domain.Chunk) ([][]float64, error) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if be, ok := emb.(batchEmbedder); ok {
		return be.EmbedBatch(ctx, texts)
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
