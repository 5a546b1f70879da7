package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is an in-memory Index. It backs tests and single-binary setups
// where running Qdrant is not worth the operational weight. Scoring uses
// cosine similarity, matching the Qdrant collection's distance metric.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[uuid.UUID]Point
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[uuid.UUID]Point)}
}

// EnsureCollection is a no-op for the in-memory index.
func (m *MemoryIndex) EnsureCollection(ctx context.Context) error { return nil }

// Upsert inserts or replaces points keyed by point ID.
func (m *MemoryIndex) Upsert(ctx context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

// Query returns up to limit points ranked by cosine similarity to vector,
// dropping those below scoreThreshold.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.points))
	for _, p := range m.points {
		if len(p.Vector) != len(vector) {
			return nil, fmt.Errorf("search: dimension mismatch: query %d vs stored %d", len(vector), len(p.Vector))
		}
		score := cosine(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, Result{Score: score, Payload: p.Payload})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// MarkOutdated flips is_latest to false on every stored chunk of the logical
// document.
func (m *MemoryIndex) MarkOutdated(ctx context.Context, logicalDocID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.points {
		if p.Payload.LogicalDocID == logicalDocID {
			p.Payload.IsLatest = false
			m.points[id] = p
		}
	}
	return nil
}

// Healthy always reports healthy.
func (m *MemoryIndex) Healthy(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryIndex) Close() error { return nil }

// Len reports the number of stored points.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
