// Package config loads runtime settings from environment variables with
// safe defaults for a local deployment (LM Studio endpoint, 8-turn prompt
// window, summarization every 30 messages).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the conversation server.
type Config struct {
	BindAddr        string
	ShutdownTimeout time.Duration

	// Chat model endpoint.
	LLMProvider     string // "openai" (any OpenAI-compatible server) or "anthropic"
	LLMAPIBase      string
	LLMAPIKey       string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int64
	ModelTimeout    time.Duration

	// Embeddings.
	EmbedModel     string
	EmbeddingDim   int
	EmbedCacheSize int64

	// Message store.
	MemoryBackend string // "chromem" or "inmem"
	ChromaDBPath  string

	// Memory windowing.
	AgentName          string
	MaxRecentTurns     int
	SummarizeAfter     int
	SummaryTemperature float64
	SummaryMaxTokens   int64
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:        envOrDefault("APP_BIND_ADDR", ":5000"),
		ShutdownTimeout: 15 * time.Second,

		LLMProvider:     strings.ToLower(envOrDefault("LLM_PROVIDER", "openai")),
		LLMAPIBase:      envOrDefault("LLM_API_BASE", "http://localhost:6666/v1"),
		LLMAPIKey:       envOrDefault("LLM_API_KEY", "lm-studio"),
		ChatModel:       envOrDefault("CHAT_MODEL", "qwen3-8b-64k-josiefied-uncensored-neo-max"),
		ChatTemperature: 0.7,
		ChatMaxTokens:   2500,
		ModelTimeout:    120 * time.Second,

		EmbedModel:     envOrDefault("EMBED_MODEL", "nomic-ai/nomic-embed-text-v1.5-GGUF"),
		EmbeddingDim:   768,
		EmbedCacheSize: 4096,

		MemoryBackend: strings.ToLower(envOrDefault("MEMORY_BACKEND", "chromem")),
		ChromaDBPath:  envOrDefault("CHROMA_DB_PATH", "./chroma"),

		AgentName:          envOrDefault("AGENT_NAME", "Miss Minutes"),
		MaxRecentTurns:     8,
		SummarizeAfter:     30,
		SummaryTemperature: 0.2,
		SummaryMaxTokens:   300,
	}

	var err error
	if cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ModelTimeout, err = durationFromEnv("MODEL_TIMEOUT", cfg.ModelTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ChatTemperature, err = floatFromEnv("CHAT_TEMPERATURE", cfg.ChatTemperature); err != nil {
		return Config{}, err
	}
	if cfg.ChatMaxTokens, err = int64FromEnv("CHAT_MAX_TOKENS", cfg.ChatMaxTokens); err != nil {
		return Config{}, err
	}
	if cfg.EmbeddingDim, err = intFromEnv("EMBEDDING_DIM", cfg.EmbeddingDim); err != nil {
		return Config{}, err
	}
	if cfg.EmbedCacheSize, err = int64FromEnv("EMBED_CACHE_SIZE", cfg.EmbedCacheSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxRecentTurns, err = intFromEnv("MAX_RECENT_TURNS", cfg.MaxRecentTurns); err != nil {
		return Config{}, err
	}
	if cfg.SummarizeAfter, err = intFromEnv("SUMMARIZE_AFTER", cfg.SummarizeAfter); err != nil {
		return Config{}, err
	}
	if cfg.SummaryTemperature, err = floatFromEnv("SUMMARY_TEMPERATURE", cfg.SummaryTemperature); err != nil {
		return Config{}, err
	}
	if cfg.SummaryMaxTokens, err = int64FromEnv("SUMMARY_MAX_TOKENS", cfg.SummaryMaxTokens); err != nil {
		return Config{}, err
	}

	switch cfg.LLMProvider {
	case "openai", "anthropic":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", cfg.LLMProvider)
	}
	switch cfg.MemoryBackend {
	case "chromem", "inmem":
	default:
		return Config{}, fmt.Errorf("MEMORY_BACKEND must be chromem or inmem, got %q", cfg.MemoryBackend)
	}
	if cfg.EmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("EMBEDDING_DIM must be positive")
	}
	if cfg.MaxRecentTurns <= 0 {
		return Config{}, fmt.Errorf("MAX_RECENT_TURNS must be positive")
	}
	if cfg.SummarizeAfter <= 0 {
		return Config{}, fmt.Errorf("SUMMARIZE_AFTER must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
