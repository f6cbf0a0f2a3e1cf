// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-feed/internal/httputil"
	"github.com/pdiddy/paper-feed/pkg/types"
)

// Fetcher retrieves the raw Atom document for one category. A returned error
// means the category yields nothing for this run.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]byte, error)
}

// ArxivClient queries the arXiv API one category at a time.
type ArxivClient struct {
	Client *http.Client
	Config types.FeedConfig
	Logger *zap.Logger
}

// NewArxivClient returns a client using cfg for endpoint, limits and retries.
func NewArxivClient(cfg types.FeedConfig, logger *zap.Logger) *ArxivClient {
	return &ArxivClient{
		Client: &http.Client{},
		Config: cfg,
		Logger: logger,
	}
}

// Fetch requests the newest submissions in category, retrying timeouts with
// exponential backoff.
func (c *ArxivClient) Fetch(ctx context.Context, category string) ([]byte, error) {
	reqURL, err := c.queryURL(category)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	logger := c.logger().With(zap.String("category", category))
	body, err := httputil.GetWithRetry(ctx, c.Client, req, httputil.RetryPolicy{
		Attempts:  c.Config.Retries,
		Timeout:   c.Config.Timeout,
		BaseDelay: c.Config.RetryBaseDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", category, err)
	}
	return body, nil
}

// queryURL builds the search URL: category filter, result cap, newest first.
func (c *ArxivClient) queryURL(category string) (string, error) {
	base, err := url.Parse(c.Config.APIBaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing api_base_url: %w", err)
	}
	maxResults := c.Config.MaxResultsPerCategory
	if maxResults <= 0 {
		maxResults = 50
	}

	q := base.Query()
	q.Set("search_query", "cat:"+category)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (c *ArxivClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
