// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the fetch and embed settings from defaults, the
// paper-feed.yaml config file, PAPER_FEED_* environment variables, and flags
// bound into viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-feed/pkg/types"
)

const (
	feedKey  = "feed"
	embedKey = "embed"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// PAPER_FEED_FEED_MAX_PAPERS=50.
const EnvPrefix = "PAPER_FEED"

// SetDefaults registers every default so environment variables can override
// keys that appear in no config file.
func SetDefaults(v *viper.Viper) {
	feed := types.DefaultFeedConfig()
	v.SetDefault(feedKey+".timeout", feed.Timeout)
	v.SetDefault(feedKey+".user_agent", feed.UserAgent)
	v.SetDefault(feedKey+".categories", feed.Categories)
	v.SetDefault(feedKey+".max_results_per_category", feed.MaxResultsPerCategory)
	v.SetDefault(feedKey+".days_back", feed.DaysBack)
	v.SetDefault(feedKey+".max_papers", feed.MaxPapers)
	v.SetDefault(feedKey+".request_delay", feed.RequestDelay)
	v.SetDefault(feedKey+".retries", feed.Retries)
	v.SetDefault(feedKey+".retry_base_delay", feed.RetryBaseDelay)
	v.SetDefault(feedKey+".api_base_url", feed.APIBaseURL)
	v.SetDefault(feedKey+".pdf_base_url", feed.PDFBaseURL)
	v.SetDefault(feedKey+".output_path", feed.OutputPath)
	v.SetDefault(feedKey+".utc_offset", feed.UTCOffset)

	embed := types.DefaultEmbedConfig()
	v.SetDefault(embedKey+".snapshot_path", embed.SnapshotPath)
	v.SetDefault(embedKey+".page_path", embed.PagePath)
	v.SetDefault(embedKey+".output_path", embed.OutputPath)
	v.SetDefault(embedKey+".placeholder_id", embed.PlaceholderID)
}

// BindEnv makes every key overridable from the environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// file mirrors the config file layout. Decoding the whole tree, rather than
// one section with UnmarshalKey, keeps defaults and env overrides for keys the
// file leaves out.
type file struct {
	Feed  types.FeedConfig  `mapstructure:"feed"`
	Embed types.EmbedConfig `mapstructure:"embed"`
}

func decode(v *viper.Viper) (file, error) {
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return f, fmt.Errorf("decoding config: %w", err)
	}
	return f, nil
}

// LoadFeed decodes and validates the feed section.
func LoadFeed(v *viper.Viper) (types.FeedConfig, error) {
	f, err := decode(v)
	if err != nil {
		return f.Feed, err
	}
	cfg := f.Feed
	cfg.Categories = splitList(cfg.Categories)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid feed config: %w", err)
	}
	return cfg, nil
}

// LoadEmbed decodes the embed section.
func LoadEmbed(v *viper.Viper) (types.EmbedConfig, error) {
	f, err := decode(v)
	if err != nil {
		return f.Embed, err
	}
	cfg := f.Embed
	if cfg.SnapshotPath == "" || cfg.PagePath == "" {
		return cfg, fmt.Errorf("embed needs both a snapshot and a page path")
	}
	return cfg, nil
}

// splitList flattens comma-separated items (as they arrive from a flag or an
// environment variable) and drops blanks.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
