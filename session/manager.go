package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/agent"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/ingest"
	"github.com/clauselens/clauselens/memory"
	"github.com/clauselens/clauselens/memory/store"
	"github.com/clauselens/clauselens/passage"
	"github.com/clauselens/clauselens/tool"
)

// Factory builds the per-session collaborators. Each session gets its own
// passage store so uploaded documents stay isolated.
type Factory func() (passage.Store, *tool.Toolset, error)

// Manager owns the live sessions of one process and bounds how many turns
// run concurrently across them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	factory   Factory
	persist   store.StateStore
	logger    *slog.Logger
	semaphore chan struct{}

	agentOptions []agent.Option
	stateOptions []memory.Option
	processor    *ingest.Processor
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPersistence saves and restores conversation snapshots through the
// given state store.
func WithPersistence(s store.StateStore) ManagerOption {
	return func(m *Manager) {
		m.persist = s
	}
}

// WithManagerLogger sets the structured logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMaxConcurrency bounds concurrent turns across all sessions.
func WithMaxConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.semaphore = make(chan struct{}, n)
		}
	}
}

// WithAgentOptions forwards options to every session's agent.
func WithAgentOptions(opts ...agent.Option) ManagerOption {
	return func(m *Manager) {
		m.agentOptions = opts
	}
}

// WithStateOptions forwards options to every session's conversation state.
func WithStateOptions(opts ...memory.Option) ManagerOption {
	return func(m *Manager) {
		m.stateOptions = opts
	}
}

// WithProcessor sets the document processor used by every session.
func WithProcessor(p *ingest.Processor) ManagerOption {
	return func(m *Manager) {
		m.processor = p
	}
}

// NewManager creates a session manager.
func NewManager(factory Factory, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		factory:   factory,
		logger:    slog.Default(),
		semaphore: make(chan struct{}, 10),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session and returns it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	passages, tools, err := m.factory()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	stateOpts := append([]memory.Option{memory.WithSummarizer(tools.FoldSummary)}, m.stateOptions...)
	state := memory.NewState(stateOpts...)

	// Resume a persisted conversation if one exists for this ID. Fresh
	// UUIDs never collide in practice; this path matters for Restore.
	if m.persist != nil {
		if snap, err := m.persist.Load(ctx, id); err == nil {
			state.Restore(snap)
		}
	}

	sess, err := New(id, Config{
		Passages:     passages,
		Tools:        tools,
		State:        state,
		Processor:    m.processor,
		Persist:      m.persist,
		Logger:       m.logger,
		AgentOptions: m.agentOptions,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id)
	return sess, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, cerrors.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session and its persisted state.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return cerrors.ErrSessionNotFound
	}
	if m.persist != nil {
		if err := m.persist.Delete(ctx, id); err != nil {
			m.logger.Warn("failed to delete persisted session", "session_id", id, "error", err)
		}
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// HandleTurn runs a turn on the identified session under the concurrency
// bound.
func (m *Manager) HandleTurn(ctx context.Context, sessionID, userMsg string) (*agent.Result, error) {
	sess, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	select {
	case m.semaphore <- struct{}{}:
		defer func() { <-m.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return sess.HandleTurn(ctx, userMsg)
}

// UploadDocument indexes a document into the identified session under the
// concurrency bound.
func (m *Manager) UploadDocument(ctx context.Context, sessionID string, raw []byte, source string) (int, error) {
	sess, err := m.Get(sessionID)
	if err != nil {
		return 0, err
	}

	select {
	case m.semaphore <- struct{}{}:
		defer func() { <-m.semaphore }()
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	return sess.UploadDocument(ctx, raw, source)
}
