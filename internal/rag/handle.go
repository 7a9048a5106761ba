package rag

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kotaehq/kotae/internal/models"
)

// ErrNoPipeline is returned when queries arrive before any documents have
// been indexed.
var ErrNoPipeline = errors.New("no documents indexed yet")

// Handle is the stable entry point the server holds while pipelines come and
// go underneath it. Rebuilds swap the pipeline atomically, so in-flight
// queries finish against the pipeline they started with.
type Handle struct {
	current atomic.Pointer[Pipeline]
}

// NewHandle returns an empty handle. Queries fail with ErrNoPipeline until
// Set is called.
func NewHandle() *Handle {
	return &Handle{}
}

// Set installs a new pipeline, replacing the previous one.
func (h *Handle) Set(p *Pipeline) {
	h.current.Store(p)
}

// Clear removes the current pipeline; queries fail with ErrNoPipeline until
// the next Set. Used when the last document is deleted.
func (h *Handle) Clear() {
	h.current.Store(nil)
}

// Ready reports whether a pipeline is installed.
func (h *Handle) Ready() bool {
	return h.current.Load() != nil
}

// ProcessQuery dispatches to the current pipeline.
func (h *Handle) ProcessQuery(ctx context.Context, query string) (*models.QueryResult, error) {
	p := h.current.Load()
	if p == nil {
		return nil, ErrNoPipeline
	}
	return p.ProcessQuery(ctx, query)
}

// Stats dispatches to the current pipeline.
func (h *Handle) Stats(ctx context.Context) (int, error) {
	p := h.current.Load()
	if p == nil {
		return 0, ErrNoPipeline
	}
	return p.Stats(ctx)
}
