// Package retrieval finds the passages most relevant to a query.
package retrieval

import (
	"context"

	"github.com/kotaehq/kotae/internal/models"
)

// Retriever searches an indexed collection for passages relevant to a query.
type Retriever interface {
	// Search returns up to k passages ranked by relevance, best first.
	Search(ctx context.Context, query string, k int) ([]models.Passage, error)
	// MMRSearch returns up to k passages selected by maximal marginal
	// relevance from the fetchK most similar candidates. lambda trades off
	// relevance (1) against diversity (0).
	MMRSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]models.Passage, error)
	// Count returns the number of indexed passages.
	Count(ctx context.Context) (int, error)
}

// Index accepts passages into a retriever's collection.
type Index interface {
	Add(ctx context.Context, passages []models.Passage) error
	Reset(ctx context.Context) error
}
