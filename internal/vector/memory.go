package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store using brute-force inner product search.
// Suitable for tests and small corpora.
type MemoryStore struct {
	dimensions int
	entries    map[string]Entry
	mu         sync.RWMutex
}

// NewMemoryStore creates an in-memory store. dimensions may be 0 to adopt the
// dimension of the first upserted vector.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{
		dimensions: dimensions,
		entries:    make(map[string]Entry),
	}
}

// Upsert inserts or replaces entries by ID.
func (m *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if m.dimensions == 0 {
			m.dimensions = len(e.Vector)
		}
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, expected %d", e.ID, len(e.Vector), m.dimensions)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		e.Vector = vec
		m.entries[e.ID] = e
	}
	return nil
}

// Query returns the top-k entries by inner product, most similar first.
func (m *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.dimensions)
	}
	matches := make([]*Match, 0, len(m.entries))
	for _, e := range m.entries {
		matches = append(matches, &Match{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: map[string]string{metadataKeyDocument: e.DocumentID},
			Score:    dot(vector, e.Vector),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of stored entries.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error { return nil }

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i] * b[i])
	}
	return sum
}
