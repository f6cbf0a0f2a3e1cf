// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"sort"
	"time"

	"github.com/pdiddy/paper-feed/pkg/types"
)

// Stats records how many papers each aggregation step removed.
type Stats struct {
	Fetched    int
	Duplicates int
	Stale      int
	Truncated  int
}

// Aggregate merges per-category results into the final snapshot list. The
// steps run in a fixed order: dedupe, recency window, sort, truncate.
// Truncating before sorting would keep arbitrary papers instead of the newest.
func Aggregate(papers []types.Paper, cfg types.FeedConfig, now time.Time) ([]types.Paper, Stats) {
	stats := Stats{Fetched: len(papers)}

	unique, removed := Deduplicate(papers)
	stats.Duplicates = removed

	if window := cfg.Window(); window > 0 {
		var dropped int
		unique, dropped = WithinWindow(unique, now.Add(-window))
		stats.Stale = dropped
	}

	SortByPublished(unique)

	final := Truncate(unique, cfg.MaxPapers)
	stats.Truncated = len(unique) - len(final)
	return final, stats
}

// Deduplicate keeps the first occurrence of every id, preserving input order.
func Deduplicate(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]struct{}, len(papers))
	unique := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}
	return unique, len(papers) - len(unique)
}

// WithinWindow drops papers published before cutoff. Papers whose timestamp
// does not parse are kept; the parser already rejects those.
func WithinWindow(papers []types.Paper, cutoff time.Time) ([]types.Paper, int) {
	kept := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if t, err := time.Parse(time.RFC3339, p.Published); err == nil && t.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	return kept, len(papers) - len(kept)
}

// SortByPublished orders papers newest first in place. Papers with equal
// timestamps keep their relative order.
func SortByPublished(papers []types.Paper) {
	keys := make(map[string]time.Time, len(papers))
	for _, p := range papers {
		if t, err := time.Parse(time.RFC3339, p.Published); err == nil {
			keys[p.Published] = t
		}
	}
	sort.SliceStable(papers, func(i, j int) bool {
		ti, iok := keys[papers[i].Published]
		tj, jok := keys[papers[j].Published]
		if iok && jok {
			return ti.After(tj)
		}
		return papers[i].Published > papers[j].Published
	})
}

// Truncate returns the first n papers. n <= 0 means no cap.
func Truncate(papers []types.Paper, n int) []types.Paper {
	if n > 0 && len(papers) > n {
		return papers[:n]
	}
	return papers
}
