package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(2)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}

	points := []Point{
		{ID: "x", Vector: []float32{1, 0}, Payload: map[string]any{"source": "x.txt"}},
		{ID: "y", Vector: []float32{0, 1}, Payload: map[string]any{"source": "y.txt"}},
		{ID: "d", Vector: []float32{0.7, 0.7}, Payload: map[string]any{"source": "d.txt"}},
	}
	if err := s.Upsert(ctx, points); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := s.Query(ctx, []float32{1, 0}, 2, false)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "x" {
		t.Errorf("best hit = %s, want x", hits[0].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits not sorted by score")
	}
	if hits[0].Vector != nil {
		t.Error("vector returned without withVectors")
	}
	if hits[0].Payload["source"] != "x.txt" {
		t.Errorf("payload missing: %v", hits[0].Payload)
	}

	hits, err = s.Query(ctx, []float32{1, 0}, 1, true)
	if err != nil {
		t.Fatalf("Query with vectors: %v", err)
	}
	if len(hits[0].Vector) != 2 {
		t.Error("withVectors should return stored vectors")
	}
}

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := NewMemoryStore(2)

	s.Upsert(ctx, []Point{{ID: "a", Vector: []float32{1, 0}}})
	s.Upsert(ctx, []Point{{ID: "a", Vector: []float32{0, 1}}})

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d after replacing upsert, want 1", n)
	}
	hits, _ := s.Query(ctx, []float32{0, 1}, 1, false)
	if hits[0].Score < 0.99 {
		t.Errorf("replaced vector not in effect, score %f", hits[0].Score)
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, _ := NewMemoryStore(3)

	if err := s.Upsert(ctx, []Point{{ID: "a", Vector: []float32{1, 0}}}); err == nil {
		t.Error("want error for wrong upsert dimension")
	}
	if _, err := s.Query(ctx, []float32{1}, 1, false); err == nil {
		t.Error("want error for wrong query dimension")
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	s, _ := NewMemoryStore(2)
	s.Upsert(ctx, []Point{{ID: "a", Vector: []float32{1, 0}}})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("count = %d after reset, want 0", n)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}
}
