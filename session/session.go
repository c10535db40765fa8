// Package session ties a conversation together: one session owns a passage
// store, a conversation memory, and the agent that answers over them.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clauselens/clauselens/agent"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/ingest"
	"github.com/clauselens/clauselens/memory"
	"github.com/clauselens/clauselens/memory/store"
	"github.com/clauselens/clauselens/passage"
	"github.com/clauselens/clauselens/pkg/telemetry"
	"github.com/clauselens/clauselens/tool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/clauselens/clauselens/session")

// Session is one user's conversation over one or more uploaded documents.
// Turns within a session are serialised.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	state     *memory.State
	passages  passage.Store
	agent     *agent.Agent
	processor *ingest.Processor
	persist   store.StateStore
	logger    *slog.Logger
}

// Config bundles the collaborators a session needs.
type Config struct {
	Passages  passage.Store
	Tools     *tool.Toolset
	State     *memory.State
	Processor *ingest.Processor
	// Persist, when set, saves the conversation snapshot after each turn.
	Persist store.StateStore
	Logger  *slog.Logger

	AgentOptions []agent.Option
}

// New creates a session with a fresh conversation state.
func New(id string, cfg Config) (*Session, error) {
	if cfg.Passages == nil || cfg.Tools == nil {
		return nil, fmt.Errorf("session requires a passage store and a toolset: %w", cerrors.ErrInvalidInput)
	}
	if cfg.State == nil {
		cfg.State = memory.NewState(memory.WithSummarizer(cfg.Tools.FoldSummary))
	}
	if cfg.Processor == nil {
		cfg.Processor = ingest.NewProcessor()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := append([]agent.Option{agent.WithLogger(cfg.Logger.With("session_id", id))}, cfg.AgentOptions...)

	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		state:     cfg.State,
		passages:  cfg.Passages,
		agent:     agent.New(cfg.Tools, cfg.State, opts...),
		processor: cfg.Processor,
		persist:   cfg.Persist,
		logger:    cfg.Logger.With("session_id", id),
	}, nil
}

// UploadDocument extracts, chunks, and indexes a raw document. Returns the
// number of passages indexed. Re-uploading the same bytes is idempotent.
func (s *Session) UploadDocument(ctx context.Context, raw []byte, source string) (n int, err error) {
	ctx, span := tracer.Start(ctx, "session.UploadDocument")
	span.SetAttributes(attribute.String("session.id", s.ID))
	defer func() { telemetry.End(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	passages, err := s.processor.ProcessDocument(raw, source)
	if err != nil {
		return 0, err
	}
	if err := s.passages.Index(ctx, passages); err != nil {
		return 0, err
	}

	s.logger.Info("document indexed",
		"source", source,
		"passages", len(passages),
		"bytes", len(raw))
	return len(passages), nil
}

// HandleTurn runs one conversational turn and persists the updated state.
func (s *Session) HandleTurn(ctx context.Context, userMsg string) (result *agent.Result, err error) {
	ctx, span := tracer.Start(ctx, "session.HandleTurn")
	span.SetAttributes(attribute.String("session.id", s.ID))
	defer func() { telemetry.End(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err = s.agent.Run(ctx, userMsg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("turn completed",
		"steps", result.Steps,
		"partial", result.Partial,
		"citations", len(result.CitedPassageIDs),
		"duration", time.Since(start))

	if s.persist != nil {
		if perr := s.persist.Save(ctx, s.ID, s.state.Snapshot()); perr != nil {
			// Persistence is best-effort; the in-process state is authoritative.
			s.logger.Warn("failed to persist session state", "error", perr)
		}
	}
	return result, nil
}

// Export serialises the conversation state to JSON.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.state.Snapshot(), "", "  ")
}

// Import replaces the conversation state from exported JSON.
func (s *Session) Import(data []byte) error {
	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid session export: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Restore(&snap)
	return nil
}

// PassageCount reports how many passages are currently indexed.
func (s *Session) PassageCount(ctx context.Context) (int, error) {
	return s.passages.Count(ctx)
}
