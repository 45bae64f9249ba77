// Package ratelimit implements the Rate Governor (spec §4.8): a
// multiplicative-backoff/halving-recovery adaptive delay keyed off
// consecutive synthetic-or-real 408 responses, layered over a
// golang.org/x/time/rate token-bucket burst cap.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

const maxDelayMs = 5000

// Governor tracks the current adaptive delay and gates requests through
// both the adaptive sleep and an underlying token-bucket burst cap.
type Governor struct {
	mu             sync.Mutex
	baseline       time.Duration
	current        time.Duration
	adaptive       bool
	consecutive408 int

	burst *rate.Limiter
	clock clock.Clock
}

// Option configures a new Governor.
type Option func(*Governor)

// WithClock injects a clock.Clock, overriding the default real clock. Tests
// use clock.NewMock to advance virtual time without real sleeps.
func WithClock(c clock.Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// WithBurst caps request bursts at burst tokens replenished at rps per
// second, independent of the adaptive delay.
func WithBurst(rps float64, burst int) Option {
	return func(g *Governor) { g.burst = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a Governor starting at requestDelayMs, adapting only when
// adaptive is true.
func New(requestDelayMs int, adaptive bool, opts ...Option) *Governor {
	baseline := time.Duration(requestDelayMs) * time.Millisecond
	g := &Governor{
		baseline: baseline,
		current:  baseline,
		adaptive: adaptive,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait blocks for the current adaptive delay (cancellable via ctx), then,
// if a burst cap is configured, waits for a token from it.
func (g *Governor) Wait(ctx context.Context) error {
	g.mu.Lock()
	delay := g.current
	g.mu.Unlock()

	if delay > 0 {
		timer := g.clock.Timer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if g.burst != nil {
		return g.burst.Wait(ctx)
	}
	return nil
}

// Observe updates the governor's delay state after a fetch completed with
// the given HTTP status code, per spec §4.8. It is a no-op when adaptive
// behavior is disabled.
func (g *Governor) Observe(statusCode int) {
	if !g.adaptive {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if statusCode == 408 {
		g.consecutive408++
		if g.consecutive408 > 3 {
			g.current = min(g.current*2, time.Duration(maxDelayMs)*time.Millisecond)
		}
		return
	}

	g.consecutive408 = 0
	if g.current > g.baseline {
		g.current = max(g.current/2, g.baseline)
	}
}

// CurrentDelay returns the current adaptive delay.
func (g *Governor) CurrentDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
