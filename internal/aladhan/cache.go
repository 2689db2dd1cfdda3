package aladhan

import (
	"context"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
)

// Cache stores raw timings bodies. Implementations return ok=false on expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

// MemoryCache is a process-local Cache with clock-driven expiry.
type MemoryCache struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]memoryEntry
}

func NewMemoryCache(c clock.Clock) *MemoryCache {
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryCache{clock: c, entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.body...), true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{body: append([]byte(nil), body...), expires: m.clock.Now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
