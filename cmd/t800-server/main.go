package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gh0stWires/T-800-server/config"
	"github.com/Gh0stWires/T-800-server/engine"
	"github.com/Gh0stWires/T-800-server/memory"
	embedcache "github.com/Gh0stWires/T-800-server/memory/embedder/cache"
	"github.com/Gh0stWires/T-800-server/memory/embedder/remote"
	"github.com/Gh0stWires/T-800-server/memory/store/chromem"
	"github.com/Gh0stWires/T-800-server/memory/store/inmem"
	"github.com/Gh0stWires/T-800-server/model"
	"github.com/Gh0stWires/T-800-server/model/anthropic"
	"github.com/Gh0stWires/T-800-server/model/openai"
	"github.com/Gh0stWires/T-800-server/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var embedder memory.Embedder = remote.New(func(o *remote.Options) {
		o.BaseURL = cfg.LLMAPIBase
		o.APIKey = cfg.LLMAPIKey
		o.Model = cfg.EmbedModel
		o.Dimensions = cfg.EmbeddingDim
	})
	embedder, err = embedcache.New(embedder, cfg.EmbedCacheSize)
	if err != nil {
		log.Fatalf("embedding cache init failed: %v", err)
	}

	var store memory.Store
	switch cfg.MemoryBackend {
	case "chromem":
		store, err = chromem.New(cfg.ChromaDBPath, cfg.EmbeddingDim)
		if err != nil {
			log.Fatalf("chromem store init failed: %v", err)
		}
	case "inmem":
		store = inmem.New()
	}
	defer store.Close()

	var chatModel model.Model
	switch cfg.LLMProvider {
	case "anthropic":
		chatModel = anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.ChatModel != "" {
				o.Model = cfg.ChatModel
			}
			o.APIKey = cfg.LLMAPIKey
		})
	default:
		chatModel = openai.NewModel(func(o *openai.Options) {
			o.BaseURL = cfg.LLMAPIBase
			o.APIKey = cfg.LLMAPIKey
			o.Model = cfg.ChatModel
		})
	}
	log.Printf("[MAIN] chat model: %s (%s)", chatModel.Info().Name, chatModel.Info().Provider)

	manager := memory.NewManager(store, embedder, chatModel, &memory.Config{
		MaxRecentTurns:     cfg.MaxRecentTurns,
		SummarizeAfter:     cfg.SummarizeAfter,
		SummaryTemperature: cfg.SummaryTemperature,
		SummaryMaxTokens:   cfg.SummaryMaxTokens,
	})

	eng := engine.New(manager, chatModel,
		engine.WithAgentName(cfg.AgentName),
		engine.WithChatParams(cfg.ChatTemperature, cfg.ChatMaxTokens),
		engine.WithModelTimeout(cfg.ModelTimeout),
	)

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server.New(eng).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[MAIN] listening on %s", cfg.BindAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[MAIN] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[MAIN] shutdown error: %v", err)
	}
}
