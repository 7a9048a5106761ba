package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// QdrantConfig configures the Qdrant REST client.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// QdrantStore is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection if missing.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// NewQdrantStore returns a store backed by a Qdrant collection, creating the
// collection if it does not exist.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &QdrantStore{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureCollection creates the collection; Qdrant answers 200 when it already
// exists with the same schema.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

// Upsert writes points with wait=true so a following query sees them.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		if len(p.Vector) != s.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), s.dimensions)
		}
		payload[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": payload}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

// Query returns the top-k points by cosine similarity.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int, withVectors bool) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"with_vector":  withVectors,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), body, &resp); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, Hit{
			Point: Point{ID: fmt.Sprint(r.ID), Vector: r.Vector, Payload: r.Payload},
			Score: r.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of stored points.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Reset drops and recreates the collection.
func (s *QdrantStore) Reset(ctx context.Context) error {
	if err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil, nil); err != nil {
		return err
	}
	return s.ensureCollection(ctx)
}

// Close is a no-op; the underlying HTTP client needs no shutdown.
func (s *QdrantStore) Close() error {
	return nil
}

func (s *QdrantStore) do(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
