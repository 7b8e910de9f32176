package memory

import (
	"context"
	"sync"
)

// IdentityStore keeps the last-used student email in process memory.
// Prefill survives session restarts, not process restarts; use the Redis
// store for the latter.
type IdentityStore struct {
	mu    sync.RWMutex
	email string
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{}
}

func (s *IdentityStore) SaveEmail(_ context.Context, email string) error {
	s.mu.Lock()
	s.email = email
	s.mu.Unlock()
	return nil
}

func (s *IdentityStore) LoadEmail(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, nil
}
