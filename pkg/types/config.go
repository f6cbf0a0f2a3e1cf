// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used when talking to the arXiv API.
type HTTPConfig struct {
	// Timeout bounds a single request attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-feed/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FeedConfig holds every tunable of the fetch run. It is passed into the
// pipeline explicitly so tests can override limits and categories.
type FeedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Categories lists the arXiv category codes queried, in order.
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// MaxResultsPerCategory caps each category query (default 50).
	MaxResultsPerCategory int `json:"max_results_per_category" yaml:"max_results_per_category" mapstructure:"max_results_per_category"`

	// DaysBack drops papers published earlier than now minus this many days.
	// Zero disables the window.
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// MaxPapers caps the snapshot (default 100).
	MaxPapers int `json:"max_papers" yaml:"max_papers" mapstructure:"max_papers"`

	// RequestDelay is the fixed pause between two category queries (default 3s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// Retries is the attempt budget per category for timed-out requests (default 3).
	Retries int `json:"retries" yaml:"retries" mapstructure:"retries"`

	// RetryBaseDelay is the first backoff delay; it doubles every attempt (default 1s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`

	// APIBaseURL is the arXiv query endpoint.
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url" mapstructure:"api_base_url"`

	// PDFBaseURL prefixes the synthesized PDF link when an entry carries none.
	PDFBaseURL string `json:"pdf_base_url" yaml:"pdf_base_url" mapstructure:"pdf_base_url"`

	// OutputPath is where the snapshot is written (default "data/papers.json").
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// UTCOffset fixes the zone used to stamp Snapshot.LastUpdated (default -5h).
	UTCOffset time.Duration `json:"utc_offset" yaml:"utc_offset" mapstructure:"utc_offset"`
}

// DefaultCategories are the broad arXiv archives queried by default.
var DefaultCategories = []string{
	"astro-ph", // Astrophysics
	"cond-mat", // Condensed Matter
	"gr-qc",    // General Relativity and Quantum Cosmology
	"hep-ex",   // High Energy Physics - Experiment
	"hep-ph",   // High Energy Physics - Phenomenology
	"nucl-th",  // Nuclear Theory
	"quant-ph", // Quantum Physics
	"math",
	"cs",
	"q-bio", // Quantitative Biology
	"q-fin", // Quantitative Finance
	"stat",
	"eess", // Electrical Engineering and Systems Science
	"econ",
}

// DefaultFeedConfig returns the configuration used when nothing is overridden.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "paper-feed/0.1",
		},
		Categories:            append([]string(nil), DefaultCategories...),
		MaxResultsPerCategory: 50,
		DaysBack:              7,
		MaxPapers:             100,
		RequestDelay:          3 * time.Second,
		Retries:               3,
		RetryBaseDelay:        1 * time.Second,
		APIBaseURL:            "http://export.arxiv.org/api/query",
		PDFBaseURL:            "https://arxiv.org/pdf/",
		OutputPath:            "data/papers.json",
		UTCOffset:             -5 * time.Hour,
	}
}

// Validate reports the first setting that would make a run meaningless.
func (c FeedConfig) Validate() error {
	switch {
	case len(c.Categories) == 0:
		return fmt.Errorf("no categories configured")
	case c.MaxResultsPerCategory <= 0:
		return fmt.Errorf("max_results_per_category must be positive, got %d", c.MaxResultsPerCategory)
	case c.Retries <= 0:
		return fmt.Errorf("retries must be positive, got %d", c.Retries)
	case c.DaysBack < 0:
		return fmt.Errorf("days_back must not be negative, got %d", c.DaysBack)
	case c.MaxPapers < 0:
		return fmt.Errorf("max_papers must not be negative, got %d", c.MaxPapers)
	case c.RequestDelay < 0 || c.RetryBaseDelay < 0 || c.Timeout < 0:
		return fmt.Errorf("delays and timeouts must not be negative")
	case c.APIBaseURL == "":
		return fmt.Errorf("api_base_url is empty")
	case c.OutputPath == "":
		return fmt.Errorf("output_path is empty")
	}
	return nil
}

// Window returns the recency window implied by DaysBack, or zero when disabled.
func (c FeedConfig) Window() time.Duration {
	if c.DaysBack <= 0 {
		return 0
	}
	return time.Duration(c.DaysBack) * 24 * time.Hour
}

// EmbedConfig holds settings for inlining a snapshot into the display page.
type EmbedConfig struct {
	// SnapshotPath is the persisted snapshot to embed.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path" mapstructure:"snapshot_path"`

	// PagePath is the display page to read.
	PagePath string `json:"page_path" yaml:"page_path" mapstructure:"page_path"`

	// OutputPath is where the rewritten page goes (defaults to PagePath).
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// PlaceholderID is the id of the <script> element that receives the data.
	PlaceholderID string `json:"placeholder_id" yaml:"placeholder_id" mapstructure:"placeholder_id"`
}

// DefaultEmbedConfig mirrors the repository layout the fetch job writes into.
func DefaultEmbedConfig() EmbedConfig {
	return EmbedConfig{
		SnapshotPath:  "data/papers.json",
		PagePath:      "arxiv-feed.html",
		PlaceholderID: "paper-data",
	}
}
