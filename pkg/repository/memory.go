package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	blob      []byte
	expiresAt time.Time
}

// MemoryRepository is the in-process client-state store. It is lost on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryRepository) Put(_ context.Context, key string, blob []byte, ttl time.Duration) error {
	cp := make([]byte, len(blob))
	copy(cp, blob)

	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{blob: cp}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}

	cp := make([]byte, len(e.blob))
	copy(cp, e.blob)
	return cp, true, nil
}

func (m *MemoryRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// SetClock replaces the time source used for expiry.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
