package crawler

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	"github.com/mwalden/sitecrawl/internal/broadcast"
	"github.com/mwalden/sitecrawl/internal/crawlerr"
	"github.com/mwalden/sitecrawl/internal/extract"
	"github.com/mwalden/sitecrawl/internal/feeds"
	"github.com/mwalden/sitecrawl/internal/fetch"
	"github.com/mwalden/sitecrawl/internal/frontier"
	"github.com/mwalden/sitecrawl/internal/memwatch"
	"github.com/mwalden/sitecrawl/internal/metrics"
	"github.com/mwalden/sitecrawl/internal/ratelimit"
	"github.com/mwalden/sitecrawl/internal/robots"
	"github.com/mwalden/sitecrawl/internal/sink"
	"github.com/mwalden/sitecrawl/internal/sitemap"
	"github.com/mwalden/sitecrawl/internal/transport"
	"github.com/mwalden/sitecrawl/internal/urlutil"
)

// State names the Orchestrator's position in the crawl state machine
// (spec §4.13).
type State string

const (
	StateInit      State = "init"
	StateSeeded    State = "seeded"
	StateRunning   State = "running"
	StateDraining  State = "draining"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

const drainPollInterval = 100 * time.Millisecond

// memwatchThreshold is the MaxPages size above which an observational
// memory watchdog is attached; below it the bookkeeping isn't worth the
// runtime/debug.SetMemoryLimit call.
const memwatchThreshold = 2000

// Orchestrator drives one crawl end-to-end: Frontier admission, robots
// compliance, adaptive pacing, fetching, link extraction, optional disk
// persistence, and progress broadcasting.
type Orchestrator struct {
	opts     CrawlOptions
	logger   *slog.Logger
	fetchFn  transport.Fetch
	robots   *robots.Registry
	frontier *frontier.Frontier
	governor *ratelimit.Governor
	broad    *broadcast.Broadcaster
	tracker  *metrics.Tracker
	pageSink *sink.Sink
	watcher  *memwatch.Watcher

	seedHost string
	timeout  time.Duration

	mu      sync.Mutex
	results map[string]CrawlResult
	state   State
	inFlight int64
}

// New constructs an Orchestrator for opts. A nil logger defaults to
// slog.Default().
func New(opts CrawlOptions, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	opts.compilePatterns(func(pattern string, err error) {
		logger.Warn("crawler: invalid filter pattern skipped", "pattern", pattern, "error", err)
	})
	if opts.MaxConcurrentRequests < 1 {
		opts.MaxConcurrentRequests = 1
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 1
	}
	if opts.TimeoutSeconds < 1 {
		opts.TimeoutSeconds = 10
	}

	// Only telemetry is wired into the default transport: per §6, the
	// core's correctness never depends on a retrying client. A caller
	// wanting retries composes transport.Retry in via transport.Chain.
	client := &http.Client{}
	fetchFn := transport.Chain(transport.Base(client), transport.Telemetry(logger))

	registry := robots.New(robots.HTTPFetch(client), opts.UserAgent, logger)

	var frOpts []frontier.Option
	if opts.RespectRobotsTxt {
		frOpts = append(frOpts, frontier.WithRobots(registry))
	}
	fr := frontier.New(opts.MaxDepth, frOpts...)

	governor := ratelimit.New(opts.RequestDelayMs, opts.UseAdaptiveRateLimiting,
		ratelimit.WithBurst(50, opts.MaxConcurrentRequests*2))

	var pageSink *sink.Sink
	if opts.SavePagesToDisk {
		pageSink = sink.New(opts.OutputDirectory, opts.ValidateHTML, logger)
	}

	var watcher *memwatch.Watcher
	if opts.MaxPages > memwatchThreshold {
		watcher = memwatch.New(512, logger)
	}

	return &Orchestrator{
		opts:     opts,
		logger:   logger,
		fetchFn:  fetchFn,
		robots:   registry,
		frontier: fr,
		governor: governor,
		broad:    broadcast.New(),
		tracker:  metrics.New(),
		pageSink: pageSink,
		watcher:  watcher,
		timeout:  time.Duration(opts.TimeoutSeconds) * time.Second,
		results:  make(map[string]CrawlResult),
		state:    StateInit,
	}
}

// Subscribe exposes the Progress Broadcaster to callers (e.g. a TUI).
func (o *Orchestrator) Subscribe() (<-chan broadcast.Event, func()) {
	return o.broad.Subscribe()
}

// State returns the Orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Close releases resources (the Frontier's temporary prefilter file) held
// across the Orchestrator's lifetime. Call after Run returns.
func (o *Orchestrator) Close() error {
	return o.frontier.Close()
}

// Run drives the crawl to completion (or cancellation) and returns the
// terminal CrawlReport. It returns a non-nil error only for InvalidSeed or
// CrawlFatal conditions (spec §7); per-page failures are folded into each
// CrawlResult's Errors instead.
func (o *Orchestrator) Run(ctx context.Context) (*CrawlReport, error) {
	o.setState(StateInit)

	if o.opts.SeedURL == "" {
		return nil, crawlerr.New(crawlerr.InvalidSeed, "", errors.New("seed URL is required"))
	}

	normalizedSeed := urlutil.Normalize(o.opts.SeedURL)
	if normalizedSeed == "" {
		return nil, crawlerr.New(crawlerr.InvalidSeed, o.opts.SeedURL, errors.New("seed URL does not normalize to a valid absolute URL"))
	}

	parsedSeed, err := url.Parse(normalizedSeed)
	if err != nil || parsedSeed.Host == "" {
		return nil, crawlerr.New(crawlerr.InvalidSeed, o.opts.SeedURL, errors.New("seed URL is not absolute"))
	}
	o.seedHost = parsedSeed.Hostname()

	o.setState(StateSeeded)

	robotsDone := o.tracker.Time(metrics.OpRobotsTxtProcessing)
	o.robots.ProcessHost(ctx, parsedSeed.Scheme, parsedSeed.Host)
	robotsDone()

	if o.opts.DiscoverFromSitemapAndRss {
		feedDone := o.tracker.Time(metrics.OpSitemapProcessing)
		discovered := feeds.Discover(ctx, o.fetchFn, parsedSeed.Scheme, parsedSeed.Host, o.timeout)
		feedDone()
		for _, u := range discovered {
			o.frontier.TryAdmit(u, 1) // admitted at depth 2, as if linked from the seed
		}
	}

	o.frontier.TryAdmit(normalizedSeed, 0) // admitted at depth 1

	o.broad.Publish(broadcast.Event{Kind: broadcast.KindStarted, Message: "crawl started", QueueCount: o.frontier.Len()})

	o.setState(StateRunning)
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < o.opts.MaxConcurrentRequests; i++ {
		group.Go(func() error {
			return o.workerLoop(groupCtx)
		})
	}

	runErr := group.Wait()

	complete := true
	switch {
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		o.setState(StateFailed)
		complete = false
	case ctx.Err() != nil:
		o.setState(StateCancelled)
		complete = false
	default:
		o.setState(StateDone)
	}

	report := o.buildReport(complete)

	o.broad.Publish(broadcast.Event{
		Kind:         broadcast.KindFinished,
		CrawledCount: len(report.Results),
		Message:      "crawl finished",
	})

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return report, crawlerr.New(crawlerr.CrawlFatal, o.opts.SeedURL, runErr)
	}
	return report, nil
}

// workerLoop implements one worker's Running/Draining behavior (spec
// §4.13): pop an entry, respect MaxPages and cancellation, pace via the
// Rate Governor, fetch, record, extract, re-admit. When the Frontier is
// momentarily empty but sibling workers are still in flight, it polls
// briefly rather than exiting, since those workers may yet enqueue more
// work.
func (o *Orchestrator) workerLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if o.resultsCount() >= o.opts.MaxPages {
			return nil
		}

		entry, ok := o.frontier.Pop()
		if !ok {
			if o.loadInFlight() == 0 {
				return nil
			}
			o.setState(StateDraining)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(drainPollInterval):
			}
			continue
		}

		o.addInFlight(1)
		o.processEntry(ctx, entry)
		o.addInFlight(-1)
	}
}

func (o *Orchestrator) processEntry(ctx context.Context, entry frontier.Entry) {
	if err := o.governor.Wait(ctx); err != nil {
		return
	}

	pageDone := o.tracker.Time(metrics.OpPageCrawl)
	outcome := fetch.Fetch(ctx, o.fetchFn, entry.URL, o.opts.UserAgent, o.timeout)
	pageDone()
	o.governor.Observe(outcome.StatusCode)

	if outcome.StatusCode == 0 && ctx.Err() != nil {
		// Cancellation landed mid-fetch: spec §4.5 says no result is
		// published for a cancelled crawl.
		return
	}

	result := CrawlResult{
		ID:             hashID(entry.URL),
		RequestPath:    entry.URL,
		Depth:          entry.Depth,
		StatusCode:     outcome.StatusCode,
		Errors:         outcome.Errors,
		StartTime:      outcome.StartTime,
		CompletionTime: outcome.CompletionTime,
		ElapsedMs:      outcome.ElapsedMs(),
	}

	if outcome.StatusCode >= 200 && outcome.StatusCode < 300 && outcome.Body != "" {
		result.ResponseBody = outcome.Body

		links := extract.Links(outcome.Body, entry.URL, o.seedHost, o.opts.FollowExternalLinks, o.opts.matchesPatterns)
		result.Links = links
		for _, link := range links {
			o.frontier.TryAdmit(link, entry.Depth)
		}

		if o.opts.SavePagesToDisk && o.pageSink != nil {
			if err := o.pageSink.Save(entry.URL, outcome.Body); err != nil {
				o.logger.Error("sink save failed", "url", entry.URL, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("sink: %v", err))
			}
		}
	}

	count := o.storeResult(result)

	if o.watcher != nil {
		o.watcher.Check()
	}

	if count%10 == 0 {
		o.broad.Publish(broadcast.Event{
			Kind:         broadcast.KindProgress,
			CrawledCount: count,
			QueueCount:   o.frontier.Len(),
			CurrentDepth: entry.Depth,
		})
	}
}

// storeResult admits r into the results map, enforcing the |CrawlResult| <=
// MaxPages invariant (spec §3) at the single point of insertion: once the
// cap is reached, further results (other than updates to an already-stored
// URL) are dropped rather than merely checked-and-skipped by the caller.
func (o *Orchestrator) storeResult(r CrawlResult) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.results[r.RequestPath]; !exists && len(o.results) >= o.opts.MaxPages {
		return len(o.results)
	}
	o.results[r.RequestPath] = r
	return len(o.results)
}

func (o *Orchestrator) resultsCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.results)
}

func (o *Orchestrator) addInFlight(delta int64) {
	o.mu.Lock()
	o.inFlight += delta
	o.mu.Unlock()
}

func (o *Orchestrator) loadInFlight() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *Orchestrator) buildReport(complete bool) *CrawlReport {
	o.mu.Lock()
	results := make([]CrawlResult, 0, len(o.results))
	statusByURL := make(map[string]int, len(o.results))
	for _, r := range o.results {
		results = append(results, r)
		statusByURL[r.RequestPath] = r.StatusCode
	}
	o.mu.Unlock()

	sort.Slice(results, func(i, j int) bool { return results[i].StartTime.Before(results[j].StartTime) })

	report := &CrawlReport{
		SeedURL:  o.opts.SeedURL,
		MaxPages: o.opts.MaxPages,
		Results:  results,
		Complete: complete,
	}

	if o.opts.GenerateSitemap {
		sitemapDone := o.tracker.Time(metrics.OpSitemapProcessing)
		xmlBytes, err := sitemap.Build(sitemap.SuccessfulURLs(statusByURL), time.Now())
		sitemapDone()
		if err != nil {
			o.logger.Error("sitemap build failed", "error", err)
		} else {
			report.SitemapXML = xmlBytes
			if o.opts.SitemapOutputPath != "" {
				if err := os.WriteFile(o.opts.SitemapOutputPath, xmlBytes, 0o644); err != nil {
					o.logger.Error("sitemap write failed", "path", o.opts.SitemapOutputPath, "error", err)
				}
			}
		}
	}

	o.logger.Info("crawl finished", "summary", o.tracker.Snapshot().String())
	return report
}

// hashID derives a short stable identifier from a normalized URL (spec §3:
// "monotonic or hash-derived").
func hashID(normalizedURL string) string {
	sum := blake3.Sum256([]byte(normalizedURL))
	return hex.EncodeToString(sum[:8])
}
