package storage

import (
	"slices"
	"sync"
)

// MemoryKV is a map-backed KV. It serves tests and stands in for the
// database when persistence is disabled.
type MemoryKV struct {
	mu       sync.RWMutex
	values   map[string][]byte
	maxBytes int
	closed   bool
}

// NewMemoryKV creates an empty store. A positive maxBytes caps the total
// size of all values.
func NewMemoryKV(maxBytes int) *MemoryKV {
	return &MemoryKV{
		values:   make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get returns a copy of the value stored under key
func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrUnavailable
	}
	value, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(value), nil
}

// Set stores a copy of value under key
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}
	if m.maxBytes > 0 {
		total := len(value)
		for k, v := range m.values {
			if k != key {
				total += len(v)
			}
		}
		if total > m.maxBytes {
			return ErrQuotaExceeded
		}
	}
	m.values[key] = slices.Clone(value)
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}
	delete(m.values, key)
	return nil
}

// Close makes every later call fail with ErrUnavailable
func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
