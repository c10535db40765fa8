package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Provider:      ProviderGemini,
		Model:         "gemini-2.0-flash",
		APIKey:        "test-key",
		Embedder:      EmbedderTFIDF,
		PassageStore:  StoreMemory,
		Persistence:   PersistNone,
		Host:          "127.0.0.1",
		Port:          8080,
		MaxSteps:      6,
		TopK:          4,
		MemoryBudget:  4000,
		ChunkSize:     1000,
		ChunkOverlap:  200,
		MaxConcurrent: 10,
	}
}

func TestValidConfigPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestInvalidProviderRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = "llama"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "provider") {
		t.Errorf("expected provider validation error, got %v", err)
	}
}

func TestOverlapMustStayBelowChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = 2000
	if err := cfg.Validate(); err == nil {
		t.Error("expected chunk_overlap validation error")
	}

	// Equality is rejected too: the ingest window would never advance.
	cfg = validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Error("expected chunk_overlap == chunk_size to be rejected")
	}
}

func TestMissingAPIKeyRejected(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected api_key validation error")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLAUSELENS_PROVIDER", "")
	t.Setenv("CLAUSELENS_PORT", "")
	cfg := Load()
	if cfg.Provider != ProviderGemini {
		t.Errorf("expected gemini default, got %q", cfg.Provider)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.MaxSteps != 6 {
		t.Errorf("expected default max steps 6, got %d", cfg.MaxSteps)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLAUSELENS_PROVIDER", "openai")
	t.Setenv("CLAUSELENS_TOP_K", "8")
	cfg := Load()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected openai, got %q", cfg.Provider)
	}
	if cfg.TopK != 8 {
		t.Errorf("expected top_k 8, got %d", cfg.TopK)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("expected provider default model, got %q", cfg.Model)
	}
}
