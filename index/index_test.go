package index

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/knowit/ai/mock"
	"github.com/poiesic/knowit/core"
	badgerstore "github.com/poiesic/knowit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*Index, *mock.MockEmbedder) {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	idx, err := NewIndex(repo, embedder)
	require.NoError(t, err)
	return idx, embedder
}

func TestNewIndex_Validation(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	_, err := NewIndex(nil, embedder)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	_, err = NewIndex(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestIndex_PutEmbedsMissingVectors(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	chunks := []*core.Chunk{
		{Source: "a.md", Ordinal: 0, Text: "needs embedding"},
		{Source: "a.md", Ordinal: 1, Text: "already embedded", Vector: []float32{1, 0}},
	}
	require.NoError(t, idx.Put(ctx, chunks...))

	assert.NotEmpty(t, chunks[0].Vector)
	assert.Equal(t, []float32{1, 0}, chunks[1].Vector, "existing vector preserved")

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIndex_PutPropagatesEmbedderError(t *testing.T) {
	idx, embedder := newTestIndex(t)
	ctx := context.Background()

	wantErr := errors.New("embedding service down")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, wantErr
	}

	err := idx.Put(ctx, &core.Chunk{Source: "a.md", Ordinal: 0, Text: "text"})
	assert.ErrorIs(t, err, wantErr)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "nothing stored on embedding failure")
}

func TestIndex_Clear(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Put(ctx,
		&core.Chunk{Source: "a.md", Ordinal: 0, Text: "one"},
		&core.Chunk{Source: "a.md", Ordinal: 1, Text: "two"},
	))

	removed, err := idx.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndex_QueryNearest(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Put(ctx,
		&core.Chunk{Source: "a.md", Ordinal: 0, Text: "how to apply for a scholarship"},
		&core.Chunk{Source: "b.md", Ordinal: 0, Text: "campus parking rules"},
	))

	// The mock embedder is deterministic, so querying with a stored text
	// returns that chunk at distance ~0.
	results, err := idx.QueryNearest(ctx, "how to apply for a scholarship", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "how to apply for a scholarship", results[0].Chunk.Text)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-4)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestIndex_AllCachesSnapshot(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Put(ctx, &core.Chunk{Source: "a.md", Ordinal: 0, Text: "one"}))

	first, err := idx.All(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := idx.All(ctx)
	require.NoError(t, err)
	assert.Same(t, first[0], second[0], "same backing snapshot until invalidated")

	// A mutation invalidates the snapshot.
	require.NoError(t, idx.Put(ctx, &core.Chunk{Source: "a.md", Ordinal: 1, Text: "two"}))

	third, err := idx.All(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
}
