// Package store provides the session store implementations: an in-memory
// store for tests and single-node development, and a Postgres store for
// production.
package store

import (
	"context"
	"sync"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// MemoryStore keeps sessions in a map guarded by a mutex. Replace is atomic
// with respect to concurrent readers of the same session.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[domain.SessionID][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, id domain.SessionID) (domain.State, error) {
	s.mu.RLock()
	raw, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.SessionNotFoundError{SessionID: id}
	}
	return domain.UnmarshalState(raw)
}

func (s *MemoryStore) Insert(ctx context.Context, id domain.SessionID, state domain.State) error {
	raw, err := domain.MarshalState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return domain.SessionAlreadyExistsError{SessionID: id}
	}
	s.sessions[id] = raw
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, id domain.SessionID, state domain.State) error {
	raw, err := domain.MarshalState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; !exists {
		return domain.SessionNotFoundError{SessionID: id}
	}
	s.sessions[id] = raw
	return nil
}

func (s *MemoryStore) Has(ctx context.Context, id domain.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}
