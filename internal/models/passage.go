// Package models defines core data structures for documents, passages, and query results.
package models

// Passage is an immutable retrieved unit: chunk content plus metadata.
// Passages are produced by the retriever in relevance order (most relevant
// first); downstream code must not reorder them.
type Passage struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source returns the source document identifier from metadata, or "" when absent.
func (p *Passage) Source() string {
	if p.Metadata == nil {
		return ""
	}
	if s, ok := p.Metadata["source"].(string); ok {
		return s
	}
	return ""
}

// SourceSet returns the distinct source identifiers of passages in first-seen
// order. Passages without a source metadata field are skipped.
func SourceSet(passages []Passage) []string {
	seen := make(map[string]bool, len(passages))
	sources := make([]string, 0, len(passages))
	for i := range passages {
		s := passages[i].Source()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sources = append(sources, s)
	}
	return sources
}
