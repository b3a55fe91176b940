package tui

import (
	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// summarySource adapts summaries to fuzzy.Source by query text.
type summarySource []core.ResultSummary

func (s summarySource) String(i int) string { return s[i].Query }
func (s summarySource) Len() int            { return len(s) }

// FilterSummaries fuzzy-matches query against stored queries and returns the
// matches best first. An empty query returns summaries unchanged.
func FilterSummaries(query string, summaries []core.ResultSummary) []core.ResultSummary {
	if query == "" {
		return summaries
	}

	matches := fuzzy.FindFrom(query, summarySource(summaries))
	out := make([]core.ResultSummary, len(matches))
	for i, m := range matches {
		out[i] = summaries[m.Index]
	}
	return out
}
