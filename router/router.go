package router

import (
	"log/slog"
	"sort"
	"strings"
)

// Rule maps a query substring to a knowledge base source file. Patterns are
// matched case-insensitively as plain substrings, so a stem like "стипенди"
// covers every inflected form.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Source  string `yaml:"source"`
}

// Router matches queries against keyword rules to pick out the source files
// most likely to answer them.
type Router struct {
	rules  []Rule
	logger *slog.Logger
}

// NewRouter creates a router from the given rules. Patterns are lowercased
// once at construction; rules with an empty pattern or source are dropped.
func NewRouter(rules []Rule) *Router {
	kept := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Pattern == "" || rule.Source == "" {
			continue
		}
		rule.Pattern = strings.ToLower(rule.Pattern)
		kept = append(kept, rule)
	}
	return &Router{
		rules:  kept,
		logger: slog.Default().With("component", "router"),
	}
}

// Rules returns a copy of the active rule set.
func (r *Router) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Route returns the sources whose patterns occur in the query, sorted and
// deduplicated. An empty slice means no rule matched.
func (r *Router) Route(query string) []string {
	queryLower := strings.ToLower(query)

	matched := make(map[string]struct{})
	for _, rule := range r.rules {
		if strings.Contains(queryLower, rule.Pattern) {
			matched[rule.Source] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	sources := make([]string, 0, len(matched))
	for source := range matched {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	r.logger.Debug("query routed", "sources", sources)
	return sources
}
