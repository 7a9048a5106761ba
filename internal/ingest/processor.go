// Package ingest loads documents from disk and turns them into indexable
// passages.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/extract"
	"github.com/kotaehq/kotae/internal/models"
)

// Processor scans a documents directory and produces cleaned, chunked
// passages ready for indexing.
type Processor struct {
	dir       string
	extractor *extract.Extractor
	chunker   *Chunker
	workers   int
	logger    *zap.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the processor's logger.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithWorkers sets the number of parallel cleaning workers.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewProcessor returns a processor over the given directory. chunkSize and
// chunkOverlap are in words.
func NewProcessor(dir string, chunkSize, chunkOverlap int, opts ...ProcessorOption) (*Processor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path %s is not a directory", dir)
	}
	p := &Processor{
		dir:       dir,
		extractor: extract.NewExtractor(),
		chunker:   NewChunker(chunkSize, chunkOverlap),
		workers:   runtime.NumCPU(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Scan returns the supported document files in the directory, sorted by name.
func (p *Processor) Scan() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read documents directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extract.Supported(filepath.Ext(entry.Name())) {
			files = append(files, filepath.Join(p.dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Process extracts, cleans, and chunks every supported document in the
// directory. Cleaning runs on a worker pool but output order is deterministic:
// passages follow file name order, and chunk IDs number the full corpus
// sequentially from 1. Files that fail to extract are skipped with a warning
// rather than failing the whole run.
func (p *Processor) Process(ctx context.Context) ([]models.Passage, error) {
	files, err := p.Scan()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				text, err := p.extractor.Extract(files[i])
				if err != nil {
					p.logger.Warn("skipping unreadable document",
						zap.String("file", files[i]),
						zap.Error(err),
					)
					continue
				}
				cleaned[i] = Clean(text)
			}
		}()
	}
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	var passages []models.Passage
	chunkID := 0
	for i, text := range cleaned {
		if text == "" {
			continue
		}
		source := filepath.Base(files[i])
		for _, chunk := range p.chunker.Chunk(text) {
			chunkID++
			passages = append(passages, models.Passage{
				Content: chunk,
				Metadata: map[string]any{
					"source":   source,
					"chunk_id": chunkID,
				},
			})
		}
	}
	p.logger.Info("processed documents",
		zap.Int("files", len(files)),
		zap.Int("passages", len(passages)),
	)
	return passages, nil
}

// Dir returns the documents directory being processed.
func (p *Processor) Dir() string {
	return p.dir
}

// RemoveStored deletes a stored document file by name, refusing path
// components that would escape the directory.
func (p *Processor) RemoveStored(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return os.Remove(filepath.Join(p.dir, name))
}
