// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-feed/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadFeedDefaults(t *testing.T) {
	cfg, err := LoadFeed(newViper())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultFeedConfig(), cfg)
}

func TestLoadFeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper-feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  categories: [cs, stat]
  max_papers: 20
  request_delay: 500ms
  days_back: 0
  utc_offset: 1h
  output_path: out/papers.json
`), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFeed(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"cs", "stat"}, cfg.Categories)
	assert.Equal(t, 20, cfg.MaxPapers)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 0, cfg.DaysBack)
	assert.Equal(t, time.Hour, cfg.UTCOffset)
	assert.Equal(t, "out/papers.json", cfg.OutputPath)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50, cfg.MaxResultsPerCategory)
	assert.Equal(t, "paper-feed/0.1", cfg.UserAgent)
}

func TestLoadFeedFromEnv(t *testing.T) {
	t.Setenv("PAPER_FEED_FEED_MAX_PAPERS", "5")
	t.Setenv("PAPER_FEED_FEED_CATEGORIES", "hep-ex, gr-qc")

	cfg, err := LoadFeed(newViper())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxPapers)
	assert.Equal(t, []string{"hep-ex", "gr-qc"}, cfg.Categories)
}

func TestLoadFeedInvalid(t *testing.T) {
	v := newViper()
	v.Set("feed.retries", 0)
	_, err := LoadFeed(v)
	assert.ErrorContains(t, err, "retries")
}

func TestLoadEmbed(t *testing.T) {
	v := newViper()
	v.Set("embed.output_path", "dist/index.html")

	cfg, err := LoadEmbed(v)
	require.NoError(t, err)
	assert.Equal(t, "data/papers.json", cfg.SnapshotPath)
	assert.Equal(t, "arxiv-feed.html", cfg.PagePath)
	assert.Equal(t, "dist/index.html", cfg.OutputPath)
	assert.Equal(t, "paper-data", cfg.PlaceholderID)

	v.Set("embed.page_path", "")
	_, err = LoadEmbed(v)
	assert.Error(t, err)
}
