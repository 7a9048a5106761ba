package retrieval

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/kotaehq/kotae/internal/models"
)

// KeywordRetriever retrieves passages by keyword match using a Bleve index.
// It serves as a retrieval backend when no embedding provider is available.
type KeywordRetriever struct {
	path  string
	index bleve.Index
	mu    sync.Mutex
}

type indexedPassage struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

func keywordMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact words.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("source", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("chunk_id", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("passage", docMapping)
	im.DefaultType = "passage"
	im.DefaultMapping = docMapping

	return im
}

// NewKeywordRetriever creates or opens a Bleve index at path. An empty path
// builds the index in memory.
func NewKeywordRetriever(path string) (*KeywordRetriever, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(keywordMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory keyword index: %w", err)
		}
		return &KeywordRetriever{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open keyword index: %w", openErr)
		}
		return &KeywordRetriever{path: path, index: index}, nil
	}
	index, err := bleve.New(path, keywordMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &KeywordRetriever{path: path, index: index}, nil
}

// Add indexes the passages in one batch.
func (r *KeywordRetriever) Add(ctx context.Context, passages []models.Passage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.index.NewBatch()
	for _, p := range passages {
		doc := indexedPassage{Content: p.Content, Source: p.Source()}
		if id, ok := p.Metadata["chunk_id"].(int); ok {
			doc.ChunkID = id
		}
		if err := batch.Index(uuid.NewString(), doc); err != nil {
			return fmt.Errorf("batch passage: %w", err)
		}
	}
	if err := r.index.Batch(batch); err != nil {
		return fmt.Errorf("index passages: %w", err)
	}
	return nil
}

// Reset rebuilds an empty index.
func (r *KeywordRetriever) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.index.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	if r.path == "" {
		index, err := bleve.NewMemOnly(keywordMapping())
		if err != nil {
			return fmt.Errorf("recreate in-memory keyword index: %w", err)
		}
		r.index = index
		return nil
	}
	if err := os.RemoveAll(r.path); err != nil {
		return fmt.Errorf("remove keyword index: %w", err)
	}
	index, err := bleve.New(r.path, keywordMapping())
	if err != nil {
		return fmt.Errorf("recreate keyword index: %w", err)
	}
	r.index = index
	return nil
}

// Search runs a match query and returns up to k passages.
func (r *KeywordRetriever) Search(ctx context.Context, query string, k int) ([]models.Passage, error) {
	search := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	search.Size = k
	search.Fields = []string{"*"}
	results, err := r.index.SearchInContext(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	passages := make([]models.Passage, 0, len(results.Hits))
	for _, hit := range results.Hits {
		p := models.Passage{Metadata: map[string]any{}}
		if v, ok := hit.Fields["content"].(string); ok {
			p.Content = v
		}
		if v, ok := hit.Fields["source"].(string); ok {
			p.Metadata["source"] = v
		}
		if v, ok := hit.Fields["chunk_id"].(float64); ok {
			p.Metadata["chunk_id"] = int(v)
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// MMRSearch falls back to plain keyword search: keyword hits carry no vectors
// to diversify over.
func (r *KeywordRetriever) MMRSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]models.Passage, error) {
	return r.Search(ctx, query, k)
}

// Count returns the number of indexed passages.
func (r *KeywordRetriever) Count(ctx context.Context) (int, error) {
	n, err := r.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("keyword doc count: %w", err)
	}
	return int(n), nil
}

// Close releases the underlying index.
func (r *KeywordRetriever) Close() error {
	return r.index.Close()
}
