package cache

import (
	"context"
	"sync"
)

type memoryEntry struct {
	hash    string
	payload []byte
}

type memoryKey struct {
	kind Kind
	name string
}

// Memory keeps entries in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[memoryKey]memoryEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[memoryKey]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, kind Kind, name, hash string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[memoryKey{kind, name}]
	if !ok || e.hash != hash {
		return nil, ErrMiss
	}
	return append([]byte(nil), e.payload...), nil
}

func (m *Memory) Put(_ context.Context, kind Kind, name, hash string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoryKey{kind, name}] = memoryEntry{hash, append([]byte(nil), payload...)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.name == name {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
