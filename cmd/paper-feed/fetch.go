// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-feed/internal/config"
	"github.com/pdiddy/paper-feed/internal/feed"
	"github.com/pdiddy/paper-feed/internal/snapshot"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent arXiv papers and write the snapshot",
	Long: `Fetch queries the arXiv API once per configured category, newest submissions
first, waiting between requests. Timed-out requests are retried with
exponential backoff; a category that still fails is skipped.

The merged papers are deduplicated by arXiv ID, limited to the recency window,
sorted newest first, capped, and written to the output path. A previous
snapshot is kept next to it with a .backup suffix.

Exit status is 0 when the snapshot was saved and 1 otherwise.`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("output", "", "snapshot path (default data/papers.json)")
	f.StringSlice("categories", nil, "arXiv categories to query (comma-separated)")
	f.Int("max-per-category", 0, "results requested per category (default 50)")
	f.Int("max-papers", 0, "papers kept in the snapshot (default 100)")
	f.Int("days-back", 0, "drop papers older than this many days, 0 disables (default 7)")
	f.Duration("delay", 0, "pause between category requests (default 3s)")
	f.Duration("timeout", 0, "per-attempt HTTP timeout (default 30s)")
	f.Int("retries", 0, "attempts per category on timeout (default 3)")

	bind := map[string]string{
		"feed.output_path":              "output",
		"feed.categories":               "categories",
		"feed.max_results_per_category": "max-per-category",
		"feed.max_papers":               "max-papers",
		"feed.days_back":                "days-back",
		"feed.request_delay":            "delay",
		"feed.timeout":                  "timeout",
		"feed.retries":                  "retries",
	}
	for key, flag := range bind {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFeed(viper.GetViper())
	if err != nil {
		return err
	}

	log := logger.With(zap.String("run_id", uuid.NewString()))
	log.Info("starting arXiv fetch",
		zap.String("categories", strings.Join(cfg.Categories, ", ")),
		zap.Int("days_back", cfg.DaysBack),
		zap.Int("max_papers", cfg.MaxPapers))

	client := feed.NewArxivClient(cfg, log)
	now := time.Now()
	result, err := feed.Run(cmd.Context(), client, cfg, log, now)
	if err != nil {
		return fmt.Errorf("fetch interrupted: %w", err)
	}
	if len(result.FailedCategories) > 0 {
		log.Warn("some categories returned nothing",
			zap.Strings("failed", result.FailedCategories))
	}

	snap := snapshot.New(result.Papers, cfg.Categories, now, cfg.UTCOffset)
	if err := snapshot.Write(cfg.OutputPath, snap); err != nil {
		log.Error("failed to save papers", zap.String("path", cfg.OutputPath), zap.Error(err))
		return err
	}

	log.Info("saved snapshot",
		zap.String("path", cfg.OutputPath),
		zap.Int("total_papers", snap.TotalPapers),
		zap.String("last_updated", snap.LastUpdated))
	return nil
}
