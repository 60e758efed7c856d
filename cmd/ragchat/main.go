package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragserver/internal/config"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hashing"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/generation"
	"ragserver/internal/retriever"
	"ragserver/internal/service"
	"ragserver/internal/tui"
	"ragserver/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

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

	// Keep structured logs off the terminal the TUI owns.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	loader := vectorstore.NewLoader(cfg.Store.Path)
	store, err := loader.Store()
	if err != nil {
		log.Fatalf("snapshot unavailable (run ragindex first): %v", err)
	}

	emb := buildEmbedder(cfg, store.Dimension)
	gen := buildGenerator(cfg)
	svc := service.New(retriever.New(emb, loader), gen, nil, logger)

	summary := fmt.Sprintf("%d records, model %s, generated %s",
		store.Len(), store.Model, store.GeneratedAt.Format("2006-01-02 15:04"))
	if _, err := tea.NewProgram(tui.New(svc, summary)).Run(); err != nil {
		log.Fatal(err)
	}
}

func buildEmbedder(cfg *config.AppConfig, storeDim int) domain.Embedder {
	switch cfg.Embedder.Type {
	case "hashing", "":
		dim := 0
		if cfg.Embedder.Hashing != nil {
			dim = cfg.Embedder.Hashing.Dimension
		}
		if dim == 0 {
			dim = storeDim
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

func buildGenerator(cfg *config.AppConfig) domain.Generator {
	switch cfg.Generator.Type {
	case "template", "":
		return nil
	case "openai":
		if cfg.Generator.OpenAI == nil {
			log.Fatalf("openai generator config missing")
		}
		client, err := generation.NewClient(generation.Config{
			BaseURL:     cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv:   cfg.Generator.OpenAI.APIKeyEnv,
			Model:       cfg.Generator.OpenAI.Model,
			MaxTokens:   cfg.Generator.OpenAI.MaxTokens,
			Temperature: cfg.Generator.OpenAI.Temperature,
			Timeout:     time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
		return nil
	}
}
