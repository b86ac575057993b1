package session

import (
	"context"
	"sync"
)

// Profile is the minimal user profile kept alongside the token.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RoleAdmin may view the audit log.
const RoleAdmin = "admin"

// CanViewAudit reports whether the profile may see the audit log.
func (p Profile) CanViewAudit() bool { return p.Role == RoleAdmin }

// State is what gets persisted for a scope.
type State struct {
	Token   string
	Profile Profile
}

// Store persists session state per scope.
type Store interface {
	// Load returns the stored state, or nil when the scope has none.
	Load(ctx context.Context, scope string) (*State, error)
	// Save replaces the stored state.
	Save(ctx context.Context, scope string, state State) error
	// Clear removes the stored state.
	Clear(ctx context.Context, scope string) error
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, scope string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[scope]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, scope string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[scope] = state
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, scope)
	return nil
}
