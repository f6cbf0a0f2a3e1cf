// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordSleeps swaps the package sleep for one that records requested delays.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	old := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = old })
	return &delays
}

// slowUntil returns a handler that stalls the first n calls past any short
// attempt timeout, then answers 200 with body.
func slowUntil(n int32, calls *int32, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := atomic.AddInt32(calls, 1)
		if c <= n {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

func newGet(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestGetWithRetry_ImmediateSuccess(t *testing.T) {
	delays := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(slowUntil(0, &calls, "<feed/>"))
	defer ts.Close()

	body, err := GetWithRetry(context.Background(), ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Attempts: 3, Timeout: time.Second, BaseDelay: time.Second}, nil)
	require.NoError(t, err)

	assert.Equal(t, "<feed/>", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *delays)
}

func TestGetWithRetry_TimeoutThenSuccess(t *testing.T) {
	delays := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(slowUntil(2, &calls, "ok"))
	defer ts.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	body, err := GetWithRetry(context.Background(), ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Attempts: 3, Timeout: 50 * time.Millisecond, BaseDelay: time.Second}, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	assert.Equal(t, 2, logs.FilterMessage("request timed out").Len())
}

func TestGetWithRetry_ExhaustsAttempts(t *testing.T) {
	delays := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(slowUntil(100, &calls, ""))
	defer ts.Close()

	_, err := GetWithRetry(context.Background(), ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Attempts: 3, Timeout: 20 * time.Millisecond, BaseDelay: 10 * time.Millisecond}, nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *delays)
}

func TestGetWithRetry_StatusErrorNotRetried(t *testing.T) {
	delays := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := GetWithRetry(context.Background(), ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Attempts: 3, Timeout: time.Second}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "want *StatusError, got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *delays)
}

func TestGetWithRetry_ConnectionErrorNotRetried(t *testing.T) {
	delays := recordSleeps(t)
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := GetWithRetry(context.Background(), http.DefaultClient, newGet(t, url),
		RetryPolicy{Attempts: 3, Timeout: time.Second}, nil)
	require.Error(t, err)

	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Empty(t, *delays)
}

func TestGetWithRetry_ContextCancelled(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(slowUntil(100, &calls, ""))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := GetWithRetry(ctx, ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Attempts: 3, Timeout: time.Second, BaseDelay: time.Second}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetWithRetry_DefaultAttempts(t *testing.T) {
	recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(slowUntil(100, &calls, ""))
	defer ts.Close()

	_, err := GetWithRetry(context.Background(), ts.Client(), newGet(t, ts.URL),
		RetryPolicy{Timeout: 20 * time.Millisecond}, nil)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, int32(defaultAttempts), atomic.LoadInt32(&calls))
}
