// Package chunker splits knowledge-base documents into overlapping,
// boundary-aware chunks suitable for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/poiesic/knowit/core"
)

// Boundary separators, tried in priority order when a chunk does not reach
// the natural end of the text.
var (
	paragraphBreak = []rune("\n\n")

	sentenceEnders = [][]rune{
		[]rune(". "),
		[]rune(".\n"),
		[]rune("!\n"),
		[]rune("?\n"),
	}
)

// Splitter splits document text into chunks of roughly chunkSize characters
// with a trailing overlap between consecutive chunks. The overlap exists so
// that facts split across a chunk boundary are not permanently lost to
// retrieval.
//
// Sizes are measured in runes, not bytes: the knowledge base is not limited
// to ASCII and a chunk must never cut a code point in half.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a Splitter. The overlap must be strictly smaller than
// the chunk size, otherwise the split cursor would never advance.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 {
		return nil, ErrInvalidOverlap
	}
	if overlap >= chunkSize {
		return nil, ErrOverlapTooLarge
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts text into ordered chunks attributed to source.
//
// Each iteration proposes a chunk of chunkSize runes and, if the proposal
// falls short of the text's natural end, snaps the cut to the last paragraph
// break past the chunk midpoint, or failing that to the last sentence-ending
// separator past the midpoint. Chunks that trim to the empty string are
// discarded; ordinals are assigned sequentially to emitted chunks only.
func (s *Splitter) Split(text, source string) []*core.Chunk {
	runes := []rune(text)

	var chunks []*core.Chunk
	start := 0
	ordinal := 0

	for start < len(runes) {
		end := start + s.chunkSize
		atEnd := end >= len(runes)
		if atEnd {
			end = len(runes)
		} else {
			end = s.snap(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, &core.Chunk{
				Id:      core.ChunkID(source, ordinal),
				Source:  source,
				Ordinal: ordinal,
				Text:    piece,
			})
			ordinal++
		}

		if atEnd {
			start = end
		} else {
			start = end - s.overlap
		}
	}

	return chunks
}

// snap adjusts end to a cleaner boundary within [start, end). A candidate
// boundary only wins if it falls past the chunk midpoint; otherwise the raw
// end is kept.
func (s *Splitter) snap(runes []rune, start, end int) int {
	window := runes[start:end]
	mid := s.chunkSize / 2

	if pos := lastIndex(window, paragraphBreak); pos > mid {
		return start + pos + len(paragraphBreak)
	}

	for _, sep := range sentenceEnders {
		if pos := lastIndex(window, sep); pos > mid {
			return start + pos + len(sep)
		}
	}

	return end
}

// lastIndex returns the rune index of the last occurrence of sep in window,
// or -1 if absent. Windows are at most one chunk long, so a backward scan is
// cheap.
func lastIndex(window, sep []rune) int {
	if len(sep) == 0 || len(window) < len(sep) {
		return -1
	}
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
