package testing

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/desertthunder/ottx/internal/shared"
)

// MemoryPersister is an in-memory key/value store with injectable failures.
type MemoryPersister struct {
	mu      sync.Mutex
	items   map[string][]byte
	GetErr  error
	SetErr  error
	Removes int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{items: map[string][]byte{}}
}

func (m *MemoryPersister) GetItem(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return v, nil
}

func (m *MemoryPersister) SetItem(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryPersister) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removes++
	delete(m.items, key)
	return nil
}

// Has reports whether key is stored.
func (m *MemoryPersister) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

// Snapshot copies the stored items.
func (m *MemoryPersister) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.items)
}

// ErrStorage is a generic injected storage failure.
var ErrStorage = errors.New("storage unavailable")
