// Package transport expresses the HTTP behaviors the source repo composed
// as object decorators (cache -> resilience -> telemetry -> base) as plain
// function-wrapping middleware over a single Fetch function (spec §9). The
// crawler core depends only on the outermost Fetch; a caller that wants
// retries, caching, or telemetry composes it in, but none of that is
// required for correctness (spec §6).
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

// Fetch performs one HTTP request and returns the response. Implementations
// must respect ctx cancellation.
type Fetch func(ctx context.Context, req *http.Request) (*http.Response, error)

// Middleware wraps a Fetch with additional behavior.
type Middleware func(next Fetch) Fetch

// Chain composes middleware around base in the order given: the first
// middleware is outermost (runs first on the way in, last on the way out).
func Chain(base Fetch, mw ...Middleware) Fetch {
	wrapped := base
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}
	return wrapped
}

// Base adapts an *http.Client into a Fetch.
func Base(client *http.Client) Fetch {
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return client.Do(req.WithContext(ctx))
	}
}

// Telemetry logs request method/URL/status/duration at Debug level. It
// never alters the response or swallows errors.
func Telemetry(logger *slog.Logger) Middleware {
	return func(next Fetch) Fetch {
		return func(ctx context.Context, req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				logger.Debug("fetch failed", "method", req.Method, "url", req.URL.String(), "elapsed", elapsed, "error", err)
				return resp, err
			}
			logger.Debug("fetch completed", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "elapsed", elapsed)
			return resp, err
		}
	}
}

// Retry wraps a Fetch with exponential backoff retry for transient failures:
// network errors, 429, and 5xx. 4xx other than 429 is treated as permanent
// and never retried. maxRetries of 2 means up to 3 total attempts.
func Retry(maxRetries int, baseDelay, maxDelay time.Duration, clk clock.Clock) Middleware {
	if clk == nil {
		clk = clock.New()
	}
	return func(next Fetch) Fetch {
		return func(ctx context.Context, req *http.Request) (*http.Response, error) {
			var bodyBytes []byte
			if req.Body != nil {
				bodyBytes, _ = io.ReadAll(req.Body)
				_ = req.Body.Close()
				req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}

			backoff := baseDelay
			var resp *http.Response
			var err error

			for attempt := 0; attempt <= maxRetries; attempt++ {
				if attempt > 0 {
					if bodyBytes != nil {
						req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
					}
					timer := clk.Timer(backoff)
					select {
					case <-ctx.Done():
						timer.Stop()
						return resp, ctx.Err()
					case <-timer.C:
					}
					backoff = min(backoff*2, maxDelay)
				}

				resp, err = next(ctx, req)
				if !shouldRetry(resp, err) {
					return resp, err
				}
				if resp != nil {
					_ = resp.Body.Close()
				}
			}
			return resp, err
		}
	}
}

// shouldRetry reports whether a Fetch outcome is transient and worth
// another attempt.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return true
		}
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}
