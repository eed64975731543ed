package storage

import (
	"context"

	"github.com/poiesic/knowit/core"
)

// ChunkRepository provides persistent storage for knowledge-base chunks.
// Implementations must be thread-safe and support concurrent reads; writes
// only happen during ingestion, which runs to completion before serving.
type ChunkRepository interface {
	// PutChunks stores one or more chunks, overwriting chunks with the
	// same ID. Chunks with a zero ID get a content-derived ID assigned.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) error

	// DeleteAllChunks removes every stored chunk and returns how many
	// were removed.
	DeleteAllChunks(ctx context.Context) (int, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// GetAllChunks retrieves every stored chunk, ordered by source and
	// ordinal for determinism.
	GetAllChunks(ctx context.Context) ([]*core.Chunk, error)

	// FindNearest finds the chunks closest to the given embedding vector.
	// Results carry the backend's native distance (smaller = more
	// similar) and are ordered ascending, truncated to limit. Chunks
	// without an embedding are skipped.
	FindNearest(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)

	// Close releases repository resources. The backing store itself is
	// closed by its owner.
	Close() error
}
