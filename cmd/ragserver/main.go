package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ragserver/internal/analytics"
	"ragserver/internal/config"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hashing"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/generation"
	"ragserver/internal/retriever"
	"ragserver/internal/server"
	"ragserver/internal/service"
	"ragserver/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
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
	if addr == "" {
		addr = cfg.Server.Addr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	loader := vectorstore.NewLoader(cfg.Store.Path)
	emb := buildEmbedder(cfg, loader, logger)
	gen := buildGenerator(cfg)

	var tracker service.Tracker
	var stats server.Stats
	if cfg.Analytics.Enabled {
		alog := analytics.NewLog(cfg.Analytics.Path, logger)
		tracker = alog
		stats = alog
	}

	svc := service.New(retriever.New(emb, loader), gen, tracker, logger)
	srv := server.New(svc, stats, logger)

	logger.Info("starting server", "addr", addr, "store", cfg.Store.Path, "embedder", emb.Model())
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// buildEmbedder assembles the query-side embedder. The hashing embedder
// must match the snapshot dimension, so it is sized from the store when
// the config leaves the dimension unset.
func buildEmbedder(cfg *config.AppConfig, loader *vectorstore.Loader, logger *slog.Logger) domain.Embedder {
	switch cfg.Embedder.Type {
	case "hashing", "":
		dim := 0
		if cfg.Embedder.Hashing != nil {
			dim = cfg.Embedder.Hashing.Dimension
		}
		if dim == 0 {
			if store, err := loader.Store(); err == nil {
				dim = store.Dimension
			} else {
				logger.Warn("snapshot unavailable, hashing embedder uses default dimension", "error", err)
			}
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

// buildGenerator returns nil for the "template" type: the service then
// answers with the template fallback on every query.
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
