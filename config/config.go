// Package config loads process configuration from CLAUSELENS_* environment
// variables and validates it before anything starts.
package config

import (
	"os"
	"strconv"
)

// Provider names accepted for generation and embedding backends.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"

	EmbedderOpenAI = "openai"
	EmbedderTFIDF  = "tfidf"

	StoreMemory   = "memory"
	StorePGVector = "pgvector"

	PersistNone  = "none"
	PersistRedis = "redis"
	PersistMongo = "mongo"
)

// Config is the full process configuration.
type Config struct {
	// Generation backend.
	Provider string
	Model    string
	APIKey   string

	// Embedding backend.
	Embedder string

	// Passage store backend.
	PassageStore string

	// Conversation persistence backend.
	Persistence string

	// HTTP listener.
	Host string
	Port int

	// Agent tuning.
	MaxSteps      int
	TopK          int
	MemoryBudget  int
	ChunkSize     int
	ChunkOverlap  int
	MaxConcurrent int

	// Telemetry.
	TelemetryDisabled bool
	Environment       string
}

// Load reads configuration from the environment.
func Load() *Config {
	provider := getEnv("CLAUSELENS_PROVIDER", ProviderGemini)
	return &Config{
		Provider:          provider,
		Model:             getEnv("CLAUSELENS_MODEL", defaultModel(provider)),
		APIKey:            apiKeyFor(provider),
		Embedder:          getEnv("CLAUSELENS_EMBEDDER", EmbedderTFIDF),
		PassageStore:      getEnv("CLAUSELENS_PASSAGE_STORE", StoreMemory),
		Persistence:       getEnv("CLAUSELENS_PERSISTENCE", PersistNone),
		Host:              getEnv("CLAUSELENS_HOST", "0.0.0.0"),
		Port:              getEnvInt("CLAUSELENS_PORT", 8080),
		MaxSteps:          getEnvInt("CLAUSELENS_MAX_STEPS", 6),
		TopK:              getEnvInt("CLAUSELENS_TOP_K", 4),
		MemoryBudget:      getEnvInt("CLAUSELENS_MEMORY_BUDGET", 4000),
		ChunkSize:         getEnvInt("CLAUSELENS_CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CLAUSELENS_CHUNK_OVERLAP", 200),
		MaxConcurrent:     getEnvInt("CLAUSELENS_MAX_CONCURRENT", 10),
		TelemetryDisabled: getEnv("CLAUSELENS_TELEMETRY", "on") == "off",
		Environment:       getEnv("CLAUSELENS_ENV", "development"),
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("provider", c.Provider, ProviderOpenAI, ProviderClaude, ProviderGemini)
	v.ValidateOneOf("embedder", c.Embedder, EmbedderOpenAI, EmbedderTFIDF)
	v.ValidateOneOf("passage_store", c.PassageStore, StoreMemory, StorePGVector)
	v.ValidateOneOf("persistence", c.Persistence, PersistNone, PersistRedis, PersistMongo)
	v.ValidatePort("port", c.Port)
	v.RequirePositive("max_steps", c.MaxSteps)
	v.RequirePositive("top_k", c.TopK)
	v.RequirePositive("memory_budget", c.MemoryBudget)
	v.RequirePositive("chunk_size", c.ChunkSize)
	// The ingest window advances by chunk_size-chunk_overlap, so the overlap
	// must stay strictly below the chunk size.
	v.ValidateRange("chunk_overlap", c.ChunkOverlap, 0, c.ChunkSize-1)
	v.RequirePositive("max_concurrent", c.MaxConcurrent)

	if c.Embedder == EmbedderOpenAI {
		v.RequireNonEmpty("OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY"))
	}
	// pgvector columns have a fixed dimension; the corpus-fitted embedder
	// cannot provide one.
	if c.PassageStore == StorePGVector && c.Embedder != EmbedderOpenAI {
		v.ValidateOneOf("embedder", c.Embedder, EmbedderOpenAI)
	}
	v.RequireNonEmpty("api_key", c.APIKey)

	return v.Error()
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderClaude:
		return "claude-sonnet-4-20250514"
	default:
		return "gemini-2.0-flash"
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderClaude:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
