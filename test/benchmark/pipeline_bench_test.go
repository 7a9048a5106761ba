package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/kotaehq/kotae/internal/embedding"
	"github.com/kotaehq/kotae/internal/ingest"
	"github.com/kotaehq/kotae/internal/matheval"
	"github.com/kotaehq/kotae/internal/vectorstore"
)

func BenchmarkMemoryStoreQuery(b *testing.B) {
	store, _ := vectorstore.NewMemoryStore(384)
	ctx := context.Background()
	points := make([]vectorstore.Point, 1000)
	for i := range points {
		vec := make([]float32, 384)
		vec[0] = float32(i) / 1000
		points[i] = vectorstore.Point{ID: fmt.Sprintf("p%d", i), Vector: vec}
	}
	_ = store.Upsert(ctx, points)
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Query(ctx, query, 10, false)
	}
}

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := embedding.NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkClean(b *testing.B) {
	text := "Visit https://example.com for <b>MORE</b> Info!   Mixed CASE text, with punctuation; and [brackets] everywhere."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ingest.Clean(text)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	e := matheval.NewEvaluator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Evaluate("sqrt(144) + 2^10 / 4")
	}
}
