package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kotaehq/kotae/internal/embedding"
	"github.com/kotaehq/kotae/internal/models"
	"github.com/kotaehq/kotae/internal/vectorstore"
)

const contentField = "content"

// VectorRetriever retrieves passages by embedding similarity. It implements
// both Retriever and Index.
type VectorRetriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
}

// NewVectorRetriever returns a retriever over the given embedder and store.
func NewVectorRetriever(embedder embedding.Embedder, store vectorstore.Store) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, store: store}
}

// Add embeds the passages in one batch and upserts them under fresh IDs.
func (r *VectorRetriever) Add(ctx context.Context, passages []models.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}

	points := make([]vectorstore.Point, len(passages))
	for i, p := range passages {
		payload := map[string]any{contentField: p.Content}
		for k, v := range p.Metadata {
			payload[k] = v
		}
		points[i] = vectorstore.Point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: payload,
		}
	}
	if err := r.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert passages: %w", err)
	}
	return nil
}

// Reset removes all indexed passages.
func (r *VectorRetriever) Reset(ctx context.Context) error {
	return r.store.Reset(ctx)
}

// Search returns the k most similar passages.
func (r *VectorRetriever) Search(ctx context.Context, query string, k int) ([]models.Passage, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Query(ctx, vec, k, false)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	return passagesFromHits(hits), nil
}

// MMRSearch fetches the fetchK most similar candidates with their vectors and
// selects k of them by maximal marginal relevance.
func (r *VectorRetriever) MMRSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]models.Passage, error) {
	if fetchK < k {
		fetchK = k
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Query(ctx, vec, fetchK, true)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	selected := maximalMarginalRelevance(vec, hits, k, lambda)
	return passagesFromHits(selected), nil
}

// Count returns the number of indexed passages.
func (r *VectorRetriever) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// passagesFromHits converts store hits back into passages, splitting the
// content field from the rest of the payload.
func passagesFromHits(hits []vectorstore.Hit) []models.Passage {
	passages := make([]models.Passage, 0, len(hits))
	for _, h := range hits {
		p := models.Passage{Metadata: make(map[string]any, len(h.Payload))}
		for k, v := range h.Payload {
			if k == contentField {
				p.Content, _ = v.(string)
				continue
			}
			p.Metadata[k] = v
		}
		passages = append(passages, p)
	}
	return passages
}
