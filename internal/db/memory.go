package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/salah/internal/clock"
)

// MemoryStore is a DocumentStore held in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	clock clock.Clock
	data  map[string]map[string]Document
}

var _ DocumentStore = (*MemoryStore)(nil)

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &MemoryStore{clock: clk, data: make(map[string]map[string]Document)}
}

func (m *MemoryStore) ListIDs(_ context.Context, collection string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sortedIDs(collection)
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *MemoryStore) DeleteBatch(_ context.Context, collection string, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.data[collection]
	n := 0
	for _, id := range ids {
		if _, ok := docs[id]; ok {
			delete(docs, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CommitBatch(_ context.Context, collection string, docs []Document) error {
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document without id in %s", collection)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.data[collection]
	if !ok {
		coll = make(map[string]Document)
		m.data[collection] = coll
	}
	now := m.clock.Now().UTC().Truncate(time.Microsecond)
	for _, d := range docs {
		created := now
		if prev, ok := coll[d.ID]; ok {
			created = prev.CreatedAt
		}
		coll[d.ID] = Document{
			ID:        d.ID,
			Body:      append([]byte(nil), d.Body...),
			CreatedAt: created,
			UpdatedAt: now,
		}
	}
	return nil
}

func (m *MemoryStore) Count(_ context.Context, collection string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[collection]), nil
}

func (m *MemoryStore) Sample(_ context.Context, collection string, n int) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sortedIDs(collection)
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.data[collection][id])
	}
	return out, nil
}

// Get returns one document; used by tests and the in-process server.
func (m *MemoryStore) Get(collection, id string) (Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[collection][id]
	return d, ok
}

func (m *MemoryStore) sortedIDs(collection string) []string {
	ids := make([]string, 0, len(m.data[collection]))
	for id := range m.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
