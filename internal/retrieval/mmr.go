package retrieval

import "github.com/kotaehq/kotae/internal/vectorstore"

// maximalMarginalRelevance greedily selects k hits balancing similarity to
// the query against similarity to already-selected hits:
//
//	score = lambda*sim(query, c) - (1-lambda)*max sim(c, selected)
//
// Candidates are assumed sorted by query similarity, so the first pick is the
// best hit. Hits without vectors cannot be compared and are skipped.
func maximalMarginalRelevance(query []float32, candidates []vectorstore.Hit, k int, lambda float64) []vectorstore.Hit {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	pool := make([]vectorstore.Hit, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == len(query) {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}

	selected := make([]vectorstore.Hit, 0, k)
	remaining := make([]vectorstore.Hit, len(pool))
	copy(remaining, pool)

	for len(selected) < k {
		bestIdx := -1
		bestScore := 0.0
		for i, c := range remaining {
			relevance := vectorstore.Cosine(query, c.Vector)
			redundancy := 0.0
			for _, s := range selected {
				if sim := vectorstore.Cosine(c.Vector, s.Vector); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance - (1-lambda)*redundancy
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
