// Package inmem provides a process-local Store for dev and tests.
package inmem

import (
	"context"
	"sync"

	"github.com/Gh0stWires/T-800-server/core"
)

// Store keeps turns in a per-user slice guarded by a read-write mutex.
// Appends and reads from concurrent requests are safe; ordering is left to
// the caller, matching the persistent backend.
type Store struct {
	mu    sync.RWMutex
	turns map[string][]core.Turn
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{turns: make(map[string][]core.Turn)}
}

// Add persists a turn.
func (s *Store) Add(_ context.Context, turn core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.UserID] = append(s.turns[turn.UserID], turn)
	return nil
}

// ListByUser returns a copy of all turns for a user.
func (s *Store) ListByUser(_ context.Context, userID string) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.turns[userID]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]core.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// DeleteByIDs removes the given turns; unknown ids are a no-op.
func (s *Store) DeleteByIDs(_ context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.turns[userID]
	kept := stored[:0]
	for _, t := range stored {
		if _, ok := drop[t.ID]; !ok {
			kept = append(kept, t)
		}
	}
	s.turns[userID] = kept
	return nil
}

// Close releases resources.
func (s *Store) Close() error { return nil }
