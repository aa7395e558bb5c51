package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps the ledger state in memory. Useful for tests and for
// ephemeral runs; every Save replaces the held snapshot.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return &State{}, nil
	}
	return s.state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}
