package index

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/knowit/ai"
	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/storage"
)

// Index combines a chunk repository with an embedder. All mutations go
// through Put and Clear, which keep the cached snapshot coherent.
type Index struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	logger   *slog.Logger

	mu       sync.RWMutex
	snapshot []*core.Chunk
}

// NewIndex creates an index over the given repository and embedder.
func NewIndex(repo storage.ChunkRepository, embedder ai.Embedder) (*Index, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &Index{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "index"),
	}, nil
}

// Put embeds the chunks that lack vectors and stores the whole batch.
// Chunks that already carry a vector keep it, so re-stored chunks are not
// re-embedded.
func (idx *Index) Put(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var texts []string
	var pending []*core.Chunk
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			texts = append(texts, chunk.Text)
			pending = append(pending, chunk)
		}
	}

	if len(texts) > 0 {
		vectors, err := idx.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return ErrEmbeddingCountMismatch
		}
		for i, chunk := range pending {
			chunk.Vector = vectors[i]
		}
	}

	if err := idx.repo.PutChunks(ctx, chunks...); err != nil {
		return err
	}

	idx.Invalidate()
	return nil
}

// Clear removes every chunk from the index and returns how many were removed.
func (idx *Index) Clear(ctx context.Context) (int, error) {
	removed, err := idx.repo.DeleteAllChunks(ctx)
	if err != nil {
		return 0, err
	}

	idx.Invalidate()

	idx.logger.Info("index cleared", "chunks_removed", removed)
	return removed, nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	return idx.repo.CountChunks(ctx)
}

// QueryNearest embeds the query text and returns the closest chunks by
// cosine distance, ordered ascending.
func (idx *Index) QueryNearest(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	vector, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.repo.FindNearest(ctx, vector, limit)
}

// All returns a snapshot of every indexed chunk, ordered by source then
// ordinal. The snapshot is cached until the next mutation; callers must not
// modify the returned chunks.
func (idx *Index) All(ctx context.Context) ([]*core.Chunk, error) {
	idx.mu.RLock()
	cached := idx.snapshot
	idx.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	chunks, err := idx.repo.GetAllChunks(ctx)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	idx.snapshot = chunks
	idx.mu.Unlock()

	return chunks, nil
}

// Invalidate discards the cached snapshot. The next call to All reloads it
// from the repository.
func (idx *Index) Invalidate() {
	idx.mu.Lock()
	idx.snapshot = nil
	idx.mu.Unlock()
}
