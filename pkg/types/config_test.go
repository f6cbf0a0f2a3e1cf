// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFeedConfig(t *testing.T) {
	cfg := DefaultFeedConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.MaxPapers)
	assert.Equal(t, 50, cfg.MaxResultsPerCategory)
	assert.Equal(t, 3*time.Second, cfg.RequestDelay)
	assert.Len(t, cfg.Categories, 14)

	cfg.Categories[0] = "mutated"
	assert.Equal(t, "astro-ph", DefaultCategories[0], "defaults are copied")
}

func TestFeedConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*FeedConfig)
		errMsg string
	}{
		{"no categories", func(c *FeedConfig) { c.Categories = nil }, "no categories"},
		{"zero per category", func(c *FeedConfig) { c.MaxResultsPerCategory = 0 }, "max_results_per_category"},
		{"zero retries", func(c *FeedConfig) { c.Retries = 0 }, "retries"},
		{"negative days", func(c *FeedConfig) { c.DaysBack = -1 }, "days_back"},
		{"negative cap", func(c *FeedConfig) { c.MaxPapers = -1 }, "max_papers"},
		{"negative delay", func(c *FeedConfig) { c.RequestDelay = -time.Second }, "negative"},
		{"no endpoint", func(c *FeedConfig) { c.APIBaseURL = "" }, "api_base_url"},
		{"no output", func(c *FeedConfig) { c.OutputPath = "" }, "output_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFeedConfig()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestFeedConfigWindow(t *testing.T) {
	cfg := DefaultFeedConfig()
	assert.Equal(t, 7*24*time.Hour, cfg.Window())

	cfg.DaysBack = 0
	assert.Zero(t, cfg.Window())
}
