package ledger

import (
	"context"
	"sync"
)

// Store persists State with atomic read-modify-write. When fn returns an error
// nothing is written and the error is returned unchanged.
type Store interface {
	Load(ctx context.Context) (State, error)
	Update(ctx context.Context, fn func(*State) error) (State, error)
}

// MemoryStore keeps state in process memory
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: DefaultState()}
}

func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, fn func(*State) error) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.Clone()
	if err := fn(&next); err != nil {
		return m.state.Clone(), err
	}
	m.state = next
	return next.Clone(), nil
}
