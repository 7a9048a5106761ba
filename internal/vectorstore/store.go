// Package vectorstore stores embedded passages and serves nearest-neighbor
// queries over them.
package vectorstore

import "context"

// Point is one stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Hit is a query result: a stored point and its similarity score. The vector
// is populated only when the query asked for vectors.
type Hit struct {
	Point
	Score float64
}

// Store is a vector collection supporting upsert and nearest-neighbor search.
type Store interface {
	// Upsert inserts points, replacing any existing point with the same ID.
	Upsert(ctx context.Context, points []Point) error
	// Query returns the k nearest points by cosine similarity, best first.
	// When withVectors is set, each hit carries its stored vector.
	Query(ctx context.Context, vector []float32, k int, withVectors bool) ([]Hit, error)
	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
	// Reset removes all points.
	Reset(ctx context.Context) error
	Close() error
}
