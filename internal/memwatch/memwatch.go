// Package memwatch provides an observational memory-pressure watchdog for
// long-running crawls. It never pauses or rejects work; it only logs when
// throttle level changes, so the crawl's termination semantics are governed
// solely by the Orchestrator's state machine.
package memwatch

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// Level indicates memory pressure severity.
type Level int

const (
	Normal Level = iota
	Warning
	Critical
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "normal"
	}
}

// Watcher samples heap usage against a soft limit and logs on level
// transitions. The limit is advisory: it is handed to
// runtime/debug.SetMemoryLimit so the Go runtime itself leans on GC harder
// as usage approaches it, but the watcher never denies admission or aborts
// a crawl on its own.
type Watcher struct {
	mu         sync.Mutex
	limitBytes int64
	lastLevel  Level
	logger     *slog.Logger
}

// New creates a Watcher with a soft limit of limitMB megabytes. A limitMB
// of 0 disables the soft limit (and Check always reports Normal).
func New(limitMB int64, logger *slog.Logger) *Watcher {
	limitBytes := limitMB * 1024 * 1024
	if limitBytes > 0 {
		debug.SetMemoryLimit(limitBytes)
	}
	return &Watcher{limitBytes: limitBytes, lastLevel: Normal, logger: logger}
}

// Check samples current heap usage, logs a Warn if the throttle level rose
// since the last check, and returns the current usage percentage and level.
func (w *Watcher) Check() (usedPercent float64, level Level) {
	if w.limitBytes <= 0 {
		return 0, Normal
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usedPercent = (float64(stats.HeapAlloc) / float64(w.limitBytes)) * 100

	switch {
	case usedPercent >= 90:
		level = Critical
	case usedPercent >= 75:
		level = Warning
	default:
		level = Normal
	}

	w.mu.Lock()
	rose := level > w.lastLevel
	w.lastLevel = level
	w.mu.Unlock()

	if rose && w.logger != nil {
		w.logger.Warn("memwatch: throttle level rose", "level", level.String(), "used_percent", usedPercent)
	}

	return usedPercent, level
}
