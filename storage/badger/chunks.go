package badger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
//
// Returns the storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources. The backend itself is closed by its
// owner.
func (r *ChunkRepository) Close() error {
	return nil
}

// PutChunks stores one or more chunks, overwriting existing chunks with the
// same ID. Chunks with a zero ID get their content-derived ID assigned.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(chunk.Source, chunk.Ordinal)
			}

			key := makeChunkKey(chunk.Id)
			value := storage.MarshalChunk(chunk)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteAllChunks removes every stored chunk and returns how many were
// removed.
func (r *ChunkRepository) DeleteAllChunks(ctx context.Context) (int, error) {
	count, err := r.CountChunks(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := r.backend.DropPrefix([]byte(chunkRecordPrefix)); err != nil {
		return 0, err
	}
	return count, nil
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// GetAllChunks retrieves every stored chunk, ordered by source then ordinal
// so callers observe a deterministic snapshot.
func (r *ChunkRepository) GetAllChunks(ctx context.Context) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].Ordinal < chunks[j].Ordinal
	})

	return chunks, nil
}

// FindNearest delegates to the backend.
func (r *ChunkRepository) FindNearest(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindNearest(ctx, vector, limit)
}
