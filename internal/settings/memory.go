package settings

import "sync"

// MemoryStorage is a Storage kept entirely in memory. It backs tests and
// ephemeral runs that must not touch the settings file.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]any
	writes int
}

// NewMemoryStorage returns a MemoryStorage seeded with values.
func NewMemoryStorage(values map[string]any) *MemoryStorage {
	m := &MemoryStorage{values: make(map[string]any, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// LoadValue implements Storage.
func (m *MemoryStorage) LoadValue(key string, def any) any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// StoreValue implements Storage. Every call counts as a write.
func (m *MemoryStorage) StoreValue(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.writes++
}

// Writes returns the number of StoreValue calls so far.
func (m *MemoryStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
