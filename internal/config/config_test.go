package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RegistryPath != "data/registry.db" {
		t.Fatalf("unexpected registry path: %s", cfg.RegistryPath)
	}
	if cfg.QdrantCollection != "documents" {
		t.Fatalf("unexpected collection: %s", cfg.QdrantCollection)
	}
	if cfg.ChunkStrategy != "recursive" {
		t.Fatalf("unexpected chunk strategy: %s", cfg.ChunkStrategy)
	}
	if cfg.EmbeddingDimensions != 1024 {
		t.Fatalf("unexpected dimensions: %d", cfg.EmbeddingDimensions)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUNSHO_CHUNK_SIZE", "256")
	t.Setenv("BUNSHO_CHUNK_OVERLAP", "32")
	t.Setenv("BUNSHO_EMBEDDING_PROVIDER", "noop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 256 || cfg.ChunkOverlap != 32 {
		t.Fatalf("overrides not applied: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbeddingProvider != "noop" {
		t.Fatalf("unexpected provider: %s", cfg.EmbeddingProvider)
	}
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	cfg := Config{
		RegistryPath:        "data/registry.db",
		EmbeddingDimensions: 8,
		EmbeddingProvider:   "noop",
		LLMProvider:         "auto",
		ChunkSize:           100,
		ChunkOverlap:        100,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size, got nil")
	}
}

func TestValidateRejectsUnknownProviders(t *testing.T) {
	cfg := Config{
		RegistryPath:        "data/registry.db",
		EmbeddingDimensions: 8,
		EmbeddingProvider:   "quantum",
		LLMProvider:         "auto",
		ChunkSize:           100,
		ChunkOverlap:        10,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown embedding provider, got nil")
	}

	cfg.EmbeddingProvider = "noop"
	cfg.LLMProvider = "psychic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown llm provider, got nil")
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7, got %d", v)
	}
}
