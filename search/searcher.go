package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/index"
	"github.com/poiesic/knowit/router"
)

const (
	// dedupKeyRunes is how many leading runes of a chunk's text identify it
	// during fusion. Chunks sharing a prefix this long are treated as the
	// same chunk.
	dedupKeyRunes = 100

	// minResultCap is the floor on how many fused results are kept, so
	// keyword pulls survive even with a small topK.
	minResultCap = 10

	// NoResultsMessage is returned by GetContext when no signal produced a
	// match.
	NoResultsMessage = "No relevant information was found in the knowledge base."
)

// Searcher runs hybrid retrieval over a chunk index.
type Searcher struct {
	index  *index.Index
	router *router.Router
	topK   int
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithTopK sets the default result count used by GetContext.
// Default is 3.
func WithTopK(topK int) Option {
	return func(s *Searcher) error {
		if topK < 1 {
			topK = 1
		}
		s.topK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(idx *index.Index, rtr *router.Router, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if rtr == nil {
		return nil, ErrRouterRequired
	}

	s := &Searcher{
		index:  idx,
		router: rtr,
		topK:   3,
		logger: slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TopK returns the default result count used when a caller does not pass an
// explicit limit.
func (s *Searcher) TopK() int {
	return s.topK
}

// Search runs all three retrieval signals and fuses their results.
// Failures degrade rather than fail: a broken signal contributes nothing,
// and an empty index yields nil. Results are ordered by ascending distance
// with exact matches first, truncated to max(topK, 10).
func (s *Searcher) Search(ctx context.Context, query string, topK int) []*core.SearchResult {
	return s.SearchWithMonitor(ctx, query, topK, nil)
}

// SearchWithMonitor is Search with per-signal observation hooks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, topK int, monitor SearchMonitor) []*core.SearchResult {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK < 1 {
		topK = s.topK
	}

	monitor.Start(query)

	count, err := s.index.Count(ctx)
	if err != nil {
		s.logger.Error("error counting indexed chunks", "err", err)
		return nil
	}
	if count == 0 {
		s.logger.Warn("knowledge base is empty, run a rebuild first")
		return nil
	}

	snapshot, err := s.index.All(ctx)
	if err != nil {
		s.logger.Error("error loading chunk snapshot", "err", err)
		snapshot = nil
	}

	exactResults := s.exactScan(snapshot, query)
	monitor.AfterExactScan(exactResults)

	vectorResults := s.vectorSearch(ctx, query, topK, count)
	monitor.AfterVectorSearch(vectorResults)

	sources, keywordResults := s.keywordSearch(snapshot, query)
	monitor.AfterKeywordRouting(sources, keywordResults)

	// Fuse: first occurrence wins, in priority order exact, vector, keyword.
	seen := make(map[string]struct{})
	var combined []*core.SearchResult
	for _, tier := range [][]*core.SearchResult{exactResults, vectorResults, keywordResults} {
		for _, result := range tier {
			key := textKey(result.Chunk.Text)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			combined = append(combined, result)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Distance < combined[j].Distance
	})

	maxResults := topK
	if maxResults < minResultCap {
		maxResults = minResultCap
	}
	if len(combined) > maxResults {
		combined = combined[:maxResults]
	}

	s.logger.Info("hybrid search complete",
		"exact", len(exactResults),
		"vector", len(vectorResults),
		"keyword", len(keywordResults),
		"fused", len(combined))

	monitor.Finish(combined)
	return combined
}

// GetContext runs a search with the configured topK and assembles the hits
// into a single prompt-ready context string.
func (s *Searcher) GetContext(ctx context.Context, query string) string {
	results := s.Search(ctx, query, s.topK)
	if len(results) == 0 {
		return NoResultsMessage
	}

	parts := make([]string, len(results))
	for i, result := range results {
		parts[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, result.Chunk.Source, result.Chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// exactScan finds chunks whose text contains the whole query,
// case-insensitively. Catches names and titles that embeddings miss.
func (s *Searcher) exactScan(snapshot []*core.Chunk, query string) []*core.SearchResult {
	queryLower := strings.ToLower(query)
	if queryLower == "" {
		return nil
	}

	var results []*core.SearchResult
	for _, chunk := range snapshot {
		if strings.Contains(strings.ToLower(chunk.Text), queryLower) {
			results = append(results, &core.SearchResult{
				Chunk:    chunk,
				Distance: core.TierExact.BaseDistance(),
				Tier:     core.TierExact,
			})
		}
	}
	return results
}

// vectorSearch runs the embedding similarity signal. Errors are logged and
// yield an empty contribution.
func (s *Searcher) vectorSearch(ctx context.Context, query string, topK, count int) []*core.SearchResult {
	limit := topK
	if count < limit {
		limit = count
	}

	results, err := s.index.QueryNearest(ctx, query, limit)
	if err != nil {
		s.logger.Error("vector search failed", "err", err)
		return nil
	}
	return results
}

// keywordSearch pulls every chunk of the files the router matched for the
// query, at the keyword tier's fixed distance.
func (s *Searcher) keywordSearch(snapshot []*core.Chunk, query string) ([]string, []*core.SearchResult) {
	sources := s.router.Route(query)
	if len(sources) == 0 {
		return nil, nil
	}

	matched := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		matched[source] = struct{}{}
	}

	var results []*core.SearchResult
	for _, chunk := range snapshot {
		if _, ok := matched[chunk.Source]; ok {
			results = append(results, &core.SearchResult{
				Chunk:    chunk,
				Distance: core.TierKeyword.BaseDistance(),
				Tier:     core.TierKeyword,
			})
		}
	}
	return sources, results
}

// textKey returns the fusion identity of a chunk: its first dedupKeyRunes
// runes.
func textKey(text string) string {
	runes := []rune(text)
	if len(runes) > dedupKeyRunes {
		runes = runes[:dedupKeyRunes]
	}
	return string(runes)
}
