package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/knowit/chunker"
	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/index"
)

const defaultBatchSize = 100

// Stats summarizes a completed rebuild.
type Stats struct {
	Documents int // documents successfully read and split
	Chunks    int // chunks stored in the index
}

// Pipeline rebuilds the index from a knowledge base directory.
type Pipeline struct {
	index     *index.Index
	splitter  *chunker.Splitter
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per batch.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a rebuild pipeline over the given index and splitter.
func NewPipeline(idx *index.Index, splitter *chunker.Splitter, opts ...Option) (*Pipeline, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		index:     idx,
		splitter:  splitter,
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Rebuild clears the index and reloads it from every markdown file in dir,
// in lexical filename order. Documents that cannot be read are logged and
// skipped. An empty or missing directory yields zero stats and no error; the
// resulting index is simply empty.
func (p *Pipeline) Rebuild(ctx context.Context, dir string) (*Stats, error) {
	removed, err := p.index.Clear(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Info("starting rebuild", "dir", dir, "chunks_removed", removed)

	paths, err := listMarkdownFiles(dir)
	if err != nil {
		p.logger.Warn("knowledge base directory unreadable", "dir", dir, "err", err)
		return &Stats{}, nil
	}

	stats := &Stats{}
	var chunks []*core.Chunk
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable document", "path", path, "err", err)
			continue
		}

		doc := core.Document{
			Source: filepath.Base(path),
			Text:   string(data),
		}
		docChunks := p.splitter.Split(doc.Text, doc.Source)
		if len(docChunks) == 0 {
			p.logger.Warn("document produced no chunks", "source", doc.Source)
			continue
		}

		chunks = append(chunks, docChunks...)
		stats.Documents++
		p.logger.Debug("document split", "source", doc.Source, "chunks", len(docChunks))
	}

	if len(chunks) == 0 {
		p.logger.Warn("no documents loaded", "dir", dir)
		return stats, nil
	}

	if err := p.storeBatches(ctx, chunks); err != nil {
		return nil, err
	}

	stats.Chunks = len(chunks)
	p.logger.Info("rebuild complete", "documents", stats.Documents, "chunks", stats.Chunks)
	return stats, nil
}

// storeBatches embeds and stores chunks in concurrent batches of batchSize.
func (p *Pipeline) storeBatches(ctx context.Context, chunks []*core.Chunk) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.index.Put(ctx, batch...); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// listMarkdownFiles returns the *.md files directly under dir, sorted by
// name so chunk ordinals are stable across rebuilds.
func listMarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
