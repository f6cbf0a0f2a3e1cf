// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry helper used by the fetcher.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned when every attempt timed out.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError reports a non-2xx response. It is never retried.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// RetryPolicy bounds how often and how long a request is attempted.
type RetryPolicy struct {
	// Attempts is the total number of tries (default 3).
	Attempts int

	// Timeout bounds each attempt. Zero leaves only the client timeout.
	Timeout time.Duration

	// BaseDelay is the sleep after the first timeout; it doubles each attempt.
	BaseDelay time.Duration
}

const defaultAttempts = 3

// sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
var sleep = func(ctx context.Context, d time.Duration) error {
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

// GetWithRetry executes req and returns the response body. Only timeouts are
// retried: after attempt i times out the helper sleeps BaseDelay*2^i and tries
// again, up to Attempts tries in total (no sleep after the last one). Any other
// transport error, and any non-2xx status, fails immediately.
//
// If the parent context is cancelled the function returns ctx.Err().
func GetWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy, logger *zap.Logger) ([]byte, error) {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		logger.Debug("requesting",
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt+1),
			zap.Int("attempts", attempts))

		body, err := doOnce(ctx, client, req, policy.Timeout)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isTimeout(err) {
			return nil, err
		}

		lastErr = err
		logger.Warn("request timed out",
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt == attempts-1 {
			break
		}
		backoff := policy.BaseDelay << attempt
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}

func doOnce(ctx context.Context, client *http.Client, req *http.Request, timeout time.Duration) ([]byte, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := client.Do(req.Clone(attemptCtx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// isTimeout reports whether err came from an attempt deadline or a network
// timeout rather than a refused connection or a bad response.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
