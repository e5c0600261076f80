package listing

import (
	"context"
	"sync"
)

// Store keeps one State per form instance (a browser session, a CLI run)
// and the guard that keeps a second submission out while one is pending.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, state State) error
	// AcquireSubmit reports false when a submission for id is already in
	// flight.
	AcquireSubmit(ctx context.Context, id string) (bool, error)
	ReleaseSubmit(ctx context.Context, id string) error
}

// MemoryStore is a process-local Store for single user front ends.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[string]State
	inFlight map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[string]State),
		inFlight: make(map[string]bool),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return NewState(), nil
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state.Clone()
	return nil
}

func (m *MemoryStore) AcquireSubmit(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[id] {
		return false, nil
	}
	m.inFlight[id] = true
	return true, nil
}

func (m *MemoryStore) ReleaseSubmit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
	return nil
}

// Delete forgets id and any guard it holds.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	delete(m.inFlight, id)
}
