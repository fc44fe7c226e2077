// Package snapshot persists collection states between runs so the
// time-windowed caches survive process restarts. Two backends exist: an
// in-memory map and a SQLite database in the data directory.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("snapshot store is closed")

// Store saves and restores collection states keyed by entity type.
type Store interface {
	// Save replaces the snapshot of st.EntityType.
	Save(ctx context.Context, st types.CollectionState) error
	// Load returns the snapshot of entityType. The bool is false when none
	// has been saved.
	Load(ctx context.Context, entityType string) (types.CollectionState, bool, error)
	// List returns the entity types with a snapshot, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes the snapshot of entityType. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, entityType string) error
	Close() error
}

// New opens the store for backend. dir is only used by the SQLite backend.
func New(backend, dir string) (Store, error) {
	switch backend {
	case types.SnapshotNone, types.SnapshotMemory:
		return NewMemory(), nil
	case types.SnapshotSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrSnapshotBackendUnknown, backend)
	}
}

// Memory is a process-local Store.
type Memory struct {
	mu     sync.RWMutex
	states map[string]types.CollectionState
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]types.CollectionState)}
}

func (m *Memory) Save(_ context.Context, st types.CollectionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.states[st.EntityType] = st.Clone()
	return nil
}

func (m *Memory) Load(_ context.Context, entityType string) (types.CollectionState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return types.CollectionState{}, false, ErrClosed
	}
	st, ok := m.states[entityType]
	if !ok {
		return types.CollectionState{}, false, nil
	}
	return st.Clone(), true, nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(m.states))
	for k := range m.states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Delete(_ context.Context, entityType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.states, entityType)
	return nil
}

// Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.states = nil
	return nil
}
