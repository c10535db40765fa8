// Package store provides persistence backends for conversation snapshots,
// keyed by session ID.
package store

import (
	"context"
	"sync"

	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/memory"
)

// StateStore persists conversation snapshots across process restarts.
type StateStore interface {
	// Save writes the snapshot for a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, snap *memory.Snapshot) error

	// Load returns the snapshot for a session, or ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*memory.Snapshot, error)

	// Delete removes a session's snapshot. Deleting an unknown session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryStore keeps snapshots in process memory. Suitable for tests and
// single-process deployments.
type InMemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*memory.Snapshot
}

// NewInMemoryStore creates an empty in-memory state store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snaps: make(map[string]*memory.Snapshot),
	}
}

// Save stores a snapshot for the session.
func (s *InMemoryStore) Save(_ context.Context, sessionID string, snap *memory.Snapshot) error {
	if sessionID == "" || snap == nil {
		return cerrors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[sessionID] = snap
	return nil
}

// Load returns the session's snapshot.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) (*memory.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[sessionID]
	if !ok {
		return nil, cerrors.ErrSessionNotFound
	}
	return snap, nil
}

// Delete removes the session's snapshot.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, sessionID)
	return nil
}
