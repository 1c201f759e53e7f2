package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// Suitable for tests and offline development when no Pinecone credentials
// are configured.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	metadata   []map[string]interface{}
	byID       map[string]int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an empty in-memory vector index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

// EnsureIndex fixes the index dimension. Repeated calls with the same
// dimension are no-ops; a different dimension is an error.
func (m *MemoryIndex) EnsureIndex(ctx context.Context, name string, dimensions int, opts IndexOptions) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimensions != 0 && m.dimensions != dimensions {
		return fmt.Errorf("index already has dimension %d, requested %d", m.dimensions, dimensions)
	}
	m.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces vectors by ID.
func (m *MemoryIndex) Upsert(ctx context.Context, items []UpsertItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimensions == 0 {
		return fmt.Errorf("index not initialized; call EnsureIndex first")
	}
	for _, item := range items {
		if len(item.Values) != m.dimensions {
			return fmt.Errorf("vector %q dimension mismatch: got %d, expected %d", item.ID, len(item.Values), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, item.Values)
		if i, ok := m.byID[item.ID]; ok {
			m.vectors[i] = vec
			m.metadata[i] = item.Metadata
			continue
		}
		m.byID[item.ID] = len(m.ids)
		m.ids = append(m.ids, item.ID)
		m.vectors = append(m.vectors, vec)
		m.metadata = append(m.metadata, item.Metadata)
	}
	return nil
}

// Search returns the top-k vectors by inner product (cosine similarity for
// normalized vectors). When filter is non-nil, only vectors whose metadata
// matches every filter entry are considered.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int, filter map[string]interface{}) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dimensions == 0 {
		return nil, fmt.Errorf("index not initialized; call EnsureIndex first")
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if topK <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	hits := make([]Hit, 0, len(m.ids))
	for i, vec := range m.vectors {
		if !matchesFilter(m.metadata[i], filter) {
			continue
		}
		var dot float64
		for j := 0; j < m.dimensions; j++ {
			dot += float64(query[j] * vec[j])
		}
		hits = append(hits, Hit{ID: m.ids[i], Score: dot, Metadata: m.metadata[i]})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Size returns the number of stored vectors.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

func matchesFilter(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		if metadata == nil || metadata[k] != want {
			return false
		}
	}
	return true
}
