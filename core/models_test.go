package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("09_student_life.md_chunk_0")
		b := IDFromContent("09_student_life.md_chunk_0")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content yields distinct ids", func(t *testing.T) {
		a := IDFromContent("09_student_life.md_chunk_0")
		b := IDFromContent("09_student_life.md_chunk_1")
		assert.NotEqual(t, a, b)
	})

	t.Run("non-zero for non-empty content", func(t *testing.T) {
		assert.NotZero(t, IDFromContent("x"))
	})
}

func TestChunkRef(t *testing.T) {
	chunk := &Chunk{Source: "01_general_info.md", Ordinal: 3}
	assert.Equal(t, "01_general_info.md_chunk_3", chunk.Ref())
	assert.Equal(t, IDFromContent(chunk.Ref()), ChunkID(chunk.Source, chunk.Ordinal))
}

func TestTierOrdering(t *testing.T) {
	// Exact hits must outrank vector hits, which must outrank keyword hits
	// for the typical distance range the vector backend produces.
	require.Less(t, TierExact.BaseDistance(), TierKeyword.BaseDistance())
	assert.True(t, TierExact < TierVector)
	assert.True(t, TierVector < TierKeyword)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "vector", TierVector.String())
	assert.Equal(t, "keyword", TierKeyword.String())
}
