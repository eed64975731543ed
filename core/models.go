package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical content
// produces identical IDs across ingestion runs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a named unit of source text, one file of the knowledge base.
// Documents are read at ingestion time only and never mutated.
type Document struct {
	Source string // Stable identifier, the file name
	Text   string // Full document text
}

// Chunk is the atomic retrieval unit: a bounded, overlapping substring of a
// source document. Chunks are created by the chunker during ingestion and
// enriched with an embedding vector before being stored.
type Chunk struct {
	Id      ID
	Source  string    // Document the chunk was extracted from
	Ordinal int       // Position within the source, assigned in document order
	Text    string    // Trimmed chunk text, never empty
	Vector  []float32 // Embedding vector (populated by the index on write)
}

// Ref returns the human-readable chunk identifier derived from (source, ordinal).
func (c *Chunk) Ref() string {
	return fmt.Sprintf("%s_chunk_%d", c.Source, c.Ordinal)
}

// ChunkID computes the storage ID for a chunk of the given source and ordinal.
// Deterministic: re-ingesting identical input yields identical IDs.
func ChunkID(source string, ordinal int) ID {
	return IDFromContent(fmt.Sprintf("%s_chunk_%d", source, ordinal))
}

// Tier classifies which retrieval signal produced a search result.
// Tiers define a fixed relevance ordering: an exact substring hit is maximal
// evidence of relevance, vector hits carry the index's native distance, and
// keyword-routed hits are included at a fixed mid priority.
type Tier int

const (
	// TierExact marks results from the literal substring scan.
	TierExact Tier = iota + 1
	// TierVector marks results from embedding similarity search.
	TierVector
	// TierKeyword marks results force-included by the keyword router.
	TierKeyword
)

// Fixed distance constants for the non-vector tiers. Chosen so that
// exact < typical vector distances < keyword.
const (
	exactDistance   float32 = 0.1
	keywordDistance float32 = 0.5
)

// BaseDistance returns the fixed distance constant assigned to results of
// this tier. Vector results carry the index's native distance instead, so
// TierVector returns 0.
func (t Tier) BaseDistance() float32 {
	switch t {
	case TierExact:
		return exactDistance
	case TierKeyword:
		return keywordDistance
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierVector:
		return "vector"
	case TierKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// SearchResult is a query-scoped projection of a chunk with a relevance
// distance. Smaller distance means more relevant. Distances are only
// meaningful for relative ordering within one fused result list.
type SearchResult struct {
	Chunk    *Chunk
	Distance float32
	Tier     Tier
}
