package chunker

import (
	"strings"
	"testing"

	"github.com/poiesic/knowit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSplitter(500, 100)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("zero chunk size", func(t *testing.T) {
		_, err := NewSplitter(0, 0)
		assert.ErrorIs(t, err, ErrInvalidChunkSize)
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := NewSplitter(500, -1)
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})

	t.Run("overlap equal to chunk size", func(t *testing.T) {
		_, err := NewSplitter(100, 100)
		assert.ErrorIs(t, err, ErrOverlapTooLarge)
	})
}

func TestSplit_NoBoundaries(t *testing.T) {
	// 1200 characters with no paragraph or sentence breaks: snapping fails
	// on every iteration, so chunks start at 0, 400 and 800.
	s, err := NewSplitter(500, 100)
	require.NoError(t, err)

	text := strings.Repeat("a", 1200)
	chunks := s.Split(text, "doc.md")

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:500], chunks[0].Text)
	assert.Equal(t, text[400:900], chunks[1].Text)
	assert.Equal(t, text[800:1200], chunks[2].Text)
}

func TestSplit_OverlapInvariant(t *testing.T) {
	s, err := NewSplitter(500, 100)
	require.NoError(t, err)

	text := strings.Repeat("b", 1200)
	chunks := s.Split(text, "doc.md")
	require.Len(t, chunks, 3)

	// Consecutive chunks share a 100-character overlap region.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		tail := prev[len(prev)-100:]
		assert.Equal(t, tail, chunks[i].Text[:100])
	}
}

func TestSplit_ParagraphSnap(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	// Paragraph break at position 70, past the midpoint of 50.
	first := strings.Repeat("x", 70)
	second := strings.Repeat("y", 200)
	chunks := s.Split(first+"\n\n"+second, "doc.md")

	require.NotEmpty(t, chunks)
	assert.Equal(t, first, chunks[0].Text)
}

func TestSplit_SentenceSnap(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	// No paragraph break; sentence end at position 60, past the midpoint.
	first := strings.Repeat("x", 59) + "."
	second := strings.Repeat("y", 200)
	chunks := s.Split(first+" "+second, "doc.md")

	require.NotEmpty(t, chunks)
	assert.Equal(t, first, chunks[0].Text)
}

func TestSplit_BoundaryBeforeMidpointIgnored(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	// The only sentence end falls at position 10, before the midpoint, so
	// the raw 100-character cut is used.
	text := strings.Repeat("x", 9) + ". " + strings.Repeat("y", 300)
	chunks := s.Split(text, "doc.md")

	require.NotEmpty(t, chunks)
	assert.Equal(t, text[:100], chunks[0].Text)
}

func TestSplit_Coverage(t *testing.T) {
	// Every character of the input belongs to at least one chunk: stripping
	// the overlap from each subsequent chunk reconstructs the original.
	s, err := NewSplitter(500, 100)
	require.NoError(t, err)

	text := strings.Repeat("z", 1700)
	chunks := s.Split(text, "doc.md")
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i].Text[100:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	s, err := NewSplitter(50, 10)
	require.NoError(t, err)

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, s.Split("", "doc.md"))
	})

	t.Run("whitespace-only input", func(t *testing.T) {
		assert.Empty(t, s.Split("   \n\n\t  ", "doc.md"))
	})

	t.Run("real input never yields empty chunks", func(t *testing.T) {
		text := "First sentence here. Another one follows.\n\nA new paragraph with more text. And a closing line.\n"
		for _, chunk := range s.Split(text, "doc.md") {
			assert.NotEmpty(t, strings.TrimSpace(chunk.Text))
		}
	})
}

func TestSplit_SequentialOrdinals(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Split(strings.Repeat("q", 950), "doc.md")
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
		assert.Equal(t, "doc.md", chunk.Source)
		assert.Equal(t, core.ChunkID("doc.md", i), chunk.Id)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := NewSplitter(120, 30)
	require.NoError(t, err)

	text := "Scholarships are paid monthly. Students apply through the dean's office.\n\n" +
		strings.Repeat("Details follow. ", 40)

	first := s.Split(text, "09_student_life.md")
	second := s.Split(text, "09_student_life.md")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestSplit_RuneBoundaries(t *testing.T) {
	// Sizes are counted in runes so multi-byte text is never cut mid
	// code point.
	s, err := NewSplitter(4, 1)
	require.NoError(t, err)

	chunks := s.Split("абвгдежзик", "doc.md")
	require.Len(t, chunks, 3)
	assert.Equal(t, "абвг", chunks[0].Text)
	assert.Equal(t, "гдеж", chunks[1].Text)
	assert.Equal(t, "жзик", chunks[2].Text)
}
