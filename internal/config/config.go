// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// Database settings. When DatabaseURL is empty the registry falls back
	// to SQLite at RegistryPath and chunk archiving is disabled.
	DatabaseURL  string
	RegistryPath string

	// Qdrant settings. When QdrantURL is empty an in-memory index is used.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Embedding provider settings.
	EmbeddingProvider   string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey        string
	AnthropicAPIKey     string
	EmbeddingModel      string
	EmbeddingDimensions int // Vector dimensions; must match the chosen model's output.
	OllamaURL           string
	OllamaEmbedModel    string

	// Completion provider settings.
	LLMProvider string // "auto", "openai", "anthropic", or "ollama"
	LLMModel    string

	// Chunking settings.
	ChunkStrategy string
	ChunkSize     int
	ChunkOverlap  int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:         envStr("DATABASE_URL", ""),
		RegistryPath:        envStr("BUNSHO_REGISTRY_PATH", "data/registry.db"),
		QdrantURL:           envStr("QDRANT_URL", ""),
		QdrantAPIKey:        envStr("QDRANT_API_KEY", ""),
		QdrantCollection:    envStr("BUNSHO_COLLECTION", "documents"),
		EmbeddingProvider:   envStr("BUNSHO_EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		AnthropicAPIKey:     envStr("ANTHROPIC_API_KEY", ""),
		EmbeddingModel:      envStr("BUNSHO_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("BUNSHO_EMBEDDING_DIMENSIONS", 1024),
		OllamaURL:           envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:    envStr("OLLAMA_EMBED_MODEL", "mxbai-embed-large"),
		LLMProvider:         envStr("BUNSHO_LLM_PROVIDER", "auto"),
		LLMModel:            envStr("BUNSHO_LLM_MODEL", ""),
		ChunkStrategy:       envStr("BUNSHO_CHUNK_STRATEGY", "recursive"),
		ChunkSize:           envInt("BUNSHO_CHUNK_SIZE", 512),
		ChunkOverlap:        envInt("BUNSHO_CHUNK_OVERLAP", 50),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "bunsho"),
		LogLevel:            envStr("BUNSHO_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c Config) Validate() error {
	if c.DatabaseURL == "" && c.RegistryPath == "" {
		return fmt.Errorf("config: either DATABASE_URL or BUNSHO_REGISTRY_PATH is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: BUNSHO_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: BUNSHO_CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: BUNSHO_CHUNK_OVERLAP must be in [0, chunk size)")
	}
	switch c.EmbeddingProvider {
	case "auto", "openai", "ollama", "noop":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.EmbeddingProvider)
	}
	switch c.LLMProvider {
	case "auto", "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLMProvider)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
