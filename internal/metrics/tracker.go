// Package metrics implements the Performance Tracker (spec §4.12): atomic
// per-operation counters and elapsed-time sums, summarized at crawl end.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Names of the operations the Orchestrator times, kept as constants so
// callers and the summary stay in sync.
const (
	OpPageCrawl           = "PageCrawl"
	OpRobotsTxtProcessing = "RobotsTxtProcessing"
	OpSitemapProcessing   = "SitemapProcessing"
)

type opStats struct {
	count      atomic.Int64
	elapsedSum atomic.Int64 // nanoseconds
}

// Tracker records per-operation counts and elapsed time.
type Tracker struct {
	mu    sync.Mutex
	ops   map[string]*opStats
	start time.Time
}

// New creates a Tracker, starting its crawl-duration clock immediately.
func New() *Tracker {
	return &Tracker{ops: make(map[string]*opStats), start: time.Now()}
}

// Record adds one observation of the named operation taking d.
func (t *Tracker) Record(op string, d time.Duration) {
	stats := t.statsFor(op)
	stats.count.Add(1)
	stats.elapsedSum.Add(int64(d))
}

// Time records the duration between calling Time and invoking the returned
// function, as one observation of op.
func (t *Tracker) Time(op string) func() {
	start := time.Now()
	return func() { t.Record(op, time.Since(start)) }
}

func (t *Tracker) statsFor(op string) *opStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, ok := t.ops[op]
	if !ok {
		stats = &opStats{}
		t.ops[op] = stats
	}
	return stats
}

// OpSummary is one operation's aggregate counters, snapshotted for
// reporting.
type OpSummary struct {
	Op        string
	Count     int64
	TotalTime time.Duration
	MeanTime  time.Duration
}

// Summary is the crawl's complete performance report.
type Summary struct {
	TotalDuration time.Duration
	Ops           []OpSummary
}

// Snapshot captures the current counters as a Summary.
func (t *Tracker) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{TotalDuration: time.Since(t.start)}
	for op, stats := range t.ops {
		count := stats.count.Load()
		total := time.Duration(stats.elapsedSum.Load())
		var mean time.Duration
		if count > 0 {
			mean = total / time.Duration(count)
		}
		summary.Ops = append(summary.Ops, OpSummary{Op: op, Count: count, TotalTime: total, MeanTime: mean})
	}
	return summary
}

// String renders a human-readable summary, using go-humanize for
// approximate durations in the terminal report.
func (s Summary) String() string {
	out := fmt.Sprintf("crawl duration: %s\n", humanize.RelTime(time.Now().Add(-s.TotalDuration), time.Now(), "", ""))
	for _, op := range s.Ops {
		out += fmt.Sprintf("  %-22s count=%-6d total=%-10s mean=%s\n",
			op.Op, op.Count, op.TotalTime.Round(time.Millisecond), op.MeanTime.Round(time.Microsecond))
	}
	return out
}
