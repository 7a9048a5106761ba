// Package rag wires retrieval and generation into the question-answering
// pipeline.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/answer"
	"github.com/kotaehq/kotae/internal/models"
	"github.com/kotaehq/kotae/internal/retrieval"
)

// Options control how a pipeline retrieves.
type Options struct {
	TopK      int
	FetchK    int
	MMR       bool
	MMRLambda float64
}

// Pipeline answers queries by retrieving passages and generating over them.
// A pipeline is immutable after construction; rebuilding the index produces a
// new pipeline rather than mutating one in place.
type Pipeline struct {
	retriever retrieval.Retriever
	generator *answer.Generator
	opts      Options
	logger    *zap.Logger
}

// NewPipeline returns a pipeline over the given retriever and generator.
func NewPipeline(retriever retrieval.Retriever, generator *answer.Generator, opts Options, logger *zap.Logger) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.FetchK < opts.TopK {
		opts.FetchK = opts.TopK * 3
	}
	if opts.MMRLambda <= 0 {
		opts.MMRLambda = 0.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{retriever: retriever, generator: generator, opts: opts, logger: logger}
}

// ProcessQuery retrieves the most relevant passages and generates an answer.
// Retrieval failures are returned as errors; generation failures are folded
// into the answer text, so a result with degraded generation still reports
// its retrieved passages and sources.
func (p *Pipeline) ProcessQuery(ctx context.Context, query string) (*models.QueryResult, error) {
	var passages []models.Passage
	var err error
	if p.opts.MMR {
		passages, err = p.retriever.MMRSearch(ctx, query, p.opts.TopK, p.opts.FetchK, p.opts.MMRLambda)
	} else {
		passages, err = p.retriever.Search(ctx, query, p.opts.TopK)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}

	answerText := p.generator.Generate(ctx, query, passages)

	p.logger.Debug("query processed",
		zap.String("query", query),
		zap.Int("retrieved", len(passages)),
	)
	return &models.QueryResult{
		Query:          query,
		Answer:         answerText,
		RetrievedCount: len(passages),
		Sources:        models.SourceSet(passages),
		Passages:       passages,
	}, nil
}

// Stats returns the size of the indexed collection.
func (p *Pipeline) Stats(ctx context.Context) (int, error) {
	return p.retriever.Count(ctx)
}
