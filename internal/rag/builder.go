package rag

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/answer"
	"github.com/kotaehq/kotae/internal/ingest"
	"github.com/kotaehq/kotae/internal/retrieval"
)

// Builder rebuilds the retrieval index from the documents directory and
// installs the resulting pipeline into a handle. Rebuilds are serialized.
type Builder struct {
	processor *ingest.Processor
	retriever retrieval.Retriever
	index     retrieval.Index
	generator *answer.Generator
	handle    *Handle
	opts      Options
	logger    *zap.Logger

	mu sync.Mutex
}

// NewBuilder returns a builder that indexes through index, retrieves through
// retriever, and publishes pipelines to handle.
func NewBuilder(processor *ingest.Processor, retriever retrieval.Retriever, index retrieval.Index, generator *answer.Generator, handle *Handle, opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		processor: processor,
		retriever: retriever,
		index:     index,
		generator: generator,
		handle:    handle,
		opts:      opts,
		logger:    logger,
	}
}

// Rebuild reprocesses every document, reindexes the passages, and swaps in a
// fresh pipeline. When the directory holds no documents the pipeline is
// cleared and Rebuild reports false.
func (b *Builder) Rebuild(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	passages, err := b.processor.Process(ctx)
	if err != nil {
		return false, fmt.Errorf("process documents: %w", err)
	}
	if len(passages) == 0 {
		b.handle.Clear()
		b.logger.Info("no documents to index, pipeline cleared")
		return false, nil
	}

	if err := b.index.Reset(ctx); err != nil {
		return false, fmt.Errorf("reset index: %w", err)
	}
	if err := b.index.Add(ctx, passages); err != nil {
		return false, fmt.Errorf("index passages: %w", err)
	}

	b.handle.Set(NewPipeline(b.retriever, b.generator, b.opts, b.logger))
	b.logger.Info("pipeline rebuilt", zap.Int("passages", len(passages)))
	return true, nil
}
