package storage

import (
	"fmt"
	"sync"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
	order []string
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		files: make(map[string][]byte),
	}
}

// Write stores a copy of data under name
func (m *MemoryStorage) Write(name string, data []byte) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[name]; !exists {
		m.order = append(m.order, name)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Read retrieves a copy of the artifact stored under name
func (m *MemoryStorage) Read(name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.files[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// List returns the artifact names in first-write order
func (m *MemoryStorage) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}
