// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches recent arXiv submissions per category, parses the
// Atom responses into Paper records, and aggregates them into a deduplicated,
// recency-ranked list.
//
// A run is strictly sequential: one category at a time, in configured order,
// with a fixed pause between requests. A category that fails contributes no
// papers; it never aborts the run.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-feed/pkg/types"
)

// Result holds the aggregated papers and run statistics.
type Result struct {
	Papers           []types.Paper
	Stats            Stats
	FailedCategories []string
}

// wait pauses between category requests. Tests replace it to avoid real sleeps.
var wait = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run queries every configured category through f, parses the responses and
// aggregates them relative to now. It returns an error only when ctx is
// cancelled; category failures are recorded in Result.FailedCategories.
func Run(ctx context.Context, f Fetcher, cfg types.FeedConfig, logger *zap.Logger, now time.Time) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := &Parser{PDFBaseURL: cfg.PDFBaseURL, Logger: logger}

	var result Result
	var all []types.Paper
	for i, category := range cfg.Categories {
		if i > 0 && cfg.RequestDelay > 0 {
			logger.Info("waiting before next request", zap.Duration("delay", cfg.RequestDelay))
			if err := wait(ctx, cfg.RequestDelay); err != nil {
				return result, err
			}
		}

		logger.Info("fetching category", zap.String("category", category))
		data, err := f.Fetch(ctx, category)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("no response for category", zap.String("category", category), zap.Error(err))
			result.FailedCategories = append(result.FailedCategories, category)
			continue
		}

		papers := parser.Parse(data)
		logger.Info("category done", zap.String("category", category), zap.Int("papers", len(papers)))
		all = append(all, papers...)
	}

	papers, stats := Aggregate(all, cfg, now)
	logger.Info("aggregated papers",
		zap.Int("fetched", stats.Fetched),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("stale", stats.Stale),
		zap.Int("truncated", stats.Truncated),
		zap.Int("kept", len(papers)))

	result.Papers = papers
	result.Stats = stats
	return result, nil
}
