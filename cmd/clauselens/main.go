// Command clauselens runs the legal document assistant as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clauselens/clauselens/agent"
	"github.com/clauselens/clauselens/config"
	oaiembed "github.com/clauselens/clauselens/contrib/embedder/openai"
	"github.com/clauselens/clauselens/contrib/embedder/tfidf"
	"github.com/clauselens/clauselens/contrib/provider/claude"
	"github.com/clauselens/clauselens/contrib/provider/gemini"
	oaiprovider "github.com/clauselens/clauselens/contrib/provider/openai"
	tiktokenizer "github.com/clauselens/clauselens/contrib/tokenizer/tiktoken"
	"github.com/clauselens/clauselens/ingest"
	"github.com/clauselens/clauselens/llm"
	"github.com/clauselens/clauselens/memory"
	memstore "github.com/clauselens/clauselens/memory/store"
	"github.com/clauselens/clauselens/passage"
	"github.com/clauselens/clauselens/passage/pg"
	"github.com/clauselens/clauselens/pkg/logging"
	"github.com/clauselens/clauselens/pkg/telemetry"
	"github.com/clauselens/clauselens/server"
	"github.com/clauselens/clauselens/session"
	"github.com/clauselens/clauselens/tool"
	"github.com/clauselens/clauselens/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clauselens:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Logger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "clauselens",
		Environment: cfg.Environment,
		Disable:     cfg.TelemetryDisabled,
		Logger:      logging.WithComponent("telemetry"),
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}
	logger.Info("generation provider ready", "provider", cfg.Provider, "model", cfg.Model)

	factory, err := newSessionFactory(cfg, generator)
	if err != nil {
		return fmt.Errorf("init passage store: %w", err)
	}

	persist, err := newPersistence(cfg)
	if err != nil {
		return fmt.Errorf("init persistence: %w", err)
	}

	stateOpts := []memory.Option{memory.WithBudget(cfg.MemoryBudget)}
	if tok, err := tiktokenizer.New("cl100k_base"); err == nil {
		stateOpts = append(stateOpts, memory.WithTokenizer(tok))
	} else {
		logger.Warn("tiktoken unavailable, using rule-based token counting", "error", err)
	}

	processor := ingest.NewProcessor(
		ingest.WithChunkSize(cfg.ChunkSize),
		ingest.WithOverlap(cfg.ChunkOverlap),
	)

	managerOpts := []session.ManagerOption{
		session.WithManagerLogger(logger),
		session.WithMaxConcurrency(cfg.MaxConcurrent),
		session.WithAgentOptions(agent.WithMaxSteps(cfg.MaxSteps)),
		session.WithStateOptions(stateOpts...),
		session.WithProcessor(processor),
	}
	if persist != nil {
		managerOpts = append(managerOpts, session.WithPersistence(persist))
	}
	manager := session.NewManager(factory, managerOpts...)

	srv := server.NewServer(manager, &server.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		RequestTimeout:  90 * time.Second,
		MaxDocumentSize: 20 << 20,
	}, logging.WithComponent("server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		pcfg := oaiprovider.DefaultConfig().WithAPIKey(cfg.APIKey).WithModel(cfg.Model)
		return oaiprovider.New(pcfg), nil
	case config.ProviderClaude:
		pcfg := claude.DefaultConfig(cfg.APIKey, "")
		pcfg.Model = cfg.Model
		return claude.New(pcfg), nil
	default:
		pcfg := gemini.DefaultConfig(cfg.APIKey)
		pcfg.Model = cfg.Model
		return gemini.New(ctx, pcfg)
	}
}

// newSessionFactory picks the passage store per session. The in-memory
// store (with a per-session TF-IDF vocabulary) isolates each conversation;
// pgvector shares one durable index across sessions.
func newSessionFactory(cfg *config.Config, generator llm.Generator) (session.Factory, error) {
	toolOpts := []tool.Option{tool.WithTopK(cfg.TopK)}

	if cfg.PassageStore == config.StorePGVector {
		embedder, err := newEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		store, err := pg.New(pg.ConfigFromEnv(), embedder)
		if err != nil {
			return nil, err
		}
		return func() (passage.Store, *tool.Toolset, error) {
			return store, tool.New(store, generator, toolOpts...), nil
		}, nil
	}

	return func() (passage.Store, *tool.Toolset, error) {
		embedder, err := newEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := passage.NewInMemoryStore(embedder)
		return store, tool.New(store, generator, toolOpts...), nil
	}, nil
}

func newEmbedder(cfg *config.Config) (vector.Embedder, error) {
	switch cfg.Embedder {
	case config.EmbedderOpenAI:
		return oaiembed.New(os.Getenv("OPENAI_API_KEY"), "", "", 0), nil
	default:
		return tfidf.New(), nil
	}
}

func newPersistence(cfg *config.Config) (memstore.StateStore, error) {
	switch cfg.Persistence {
	case config.PersistRedis:
		return memstore.NewRedisStore(memstore.RedisConfigFromEnv()), nil
	case config.PersistMongo:
		return memstore.NewMongoStore(memstore.MongoConfigFromEnv())
	default:
		return nil, nil
	}
}
