package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory store using brute-force cosine search. Suitable
// for tests and small collections.
type MemoryStore struct {
	dimensions int
	points     map[string]Point
	mu         sync.RWMutex
}

// NewMemoryStore creates an in-memory store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		points:     make(map[string]Point),
	}, nil
}

// Upsert inserts points, replacing existing IDs.
func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), s.dimensions)
		}
		vec := make([]float32, s.dimensions)
		copy(vec, p.Vector)
		p.Vector = vec
		s.points[p.ID] = p
	}
	return nil
}

// Query returns the top-k points by cosine similarity.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int, withVectors bool) ([]Hit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), s.dimensions)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || len(s.points) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(s.points))
	for _, p := range s.points {
		hit := Hit{Point: Point{ID: p.ID, Payload: p.Payload}, Score: Cosine(vector, p.Vector)}
		if withVectors {
			hit.Vector = p.Vector
		}
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Count returns the number of stored points.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Reset removes all points.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[string]Point)
	return nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Cosine returns the cosine similarity between two vectors of equal length.
// A zero vector yields similarity 0.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
