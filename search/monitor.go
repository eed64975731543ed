package search

import "github.com/poiesic/knowit/core"

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate signal results during a
// search.
type SearchMonitor interface {
	Start(query string)
	AfterExactScan(results []*core.SearchResult)
	AfterVectorSearch(results []*core.SearchResult)
	AfterKeywordRouting(sources []string, results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                     {}
func (n *noopMonitor) AfterExactScan(_ []*core.SearchResult)              {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SearchResult)           {}
func (n *noopMonitor) AfterKeywordRouting(_ []string, _ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                      {}
