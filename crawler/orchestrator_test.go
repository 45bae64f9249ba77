package crawler_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalden/sitecrawl/crawler"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSite serves a small three-page site: "/" links to "/a" and "/b";
// "/a" links back to "/"; "/b" has no links. The "/" handler also answers
// every other path (including "/robots.txt" and the feed paths) with the
// home page markup.
func newTestSite() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/">home</a></body></html>`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>leaf page</body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestRun_CrawlsReachablePagesWithinDepthAndPageBounds(t *testing.T) {
	srv := newTestSite()
	defer srv.Close()

	opts := crawler.DefaultOptions(srv.URL + "/")
	opts.MaxDepth = 3
	opts.MaxPages = 10
	opts.RequestDelayMs = 0
	opts.DiscoverFromSitemapAndRss = false
	opts.MaxConcurrentRequests = 2
	opts.SitemapOutputPath = ""

	orch := crawler.New(opts, testLogger())
	defer func() { _ = orch.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := orch.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Complete)
	assert.LessOrEqual(t, len(report.Results), opts.MaxPages)

	var sawRoot, sawA, sawB bool
	for _, r := range report.Results {
		switch r.RequestPath {
		case srv.URL:
			sawRoot = true
		case srv.URL + "/a":
			sawA = true
		case srv.URL + "/b":
			sawB = true
		}
		assert.Equal(t, 200, r.StatusCode)
		assert.LessOrEqual(t, r.Depth, opts.MaxDepth)
	}
	assert.True(t, sawRoot)
	assert.True(t, sawA)
	assert.True(t, sawB)
}

func TestRun_RespectsMaxPages(t *testing.T) {
	srv := newTestSite()
	defer srv.Close()

	opts := crawler.DefaultOptions(srv.URL + "/")
	opts.MaxPages = 1
	opts.RequestDelayMs = 0
	opts.DiscoverFromSitemapAndRss = false
	opts.SitemapOutputPath = ""

	orch := crawler.New(opts, testLogger())
	defer func() { _ = orch.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(report.Results), 1)
}

func TestRun_RejectsEmptySeed(t *testing.T) {
	opts := crawler.DefaultOptions("")
	orch := crawler.New(opts, testLogger())
	defer func() { _ = orch.Close() }()

	_, err := orch.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_ProducesSitemapOverSuccessfulURLsOnly(t *testing.T) {
	srv := newTestSite()
	defer srv.Close()

	opts := crawler.DefaultOptions(srv.URL + "/")
	opts.RequestDelayMs = 0
	opts.DiscoverFromSitemapAndRss = false
	opts.SitemapOutputPath = ""

	orch := crawler.New(opts, testLogger())
	defer func() { _ = orch.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(report.SitemapXML), "<urlset")
	assert.Contains(t, string(report.SitemapXML), srv.URL)
}

func TestRun_CancellationStopsCrawlPromptly(t *testing.T) {
	srv := newTestSite()
	defer srv.Close()

	opts := crawler.DefaultOptions(srv.URL + "/")
	opts.RequestDelayMs = 0
	opts.DiscoverFromSitemapAndRss = false
	opts.SitemapOutputPath = ""

	orch := crawler.New(opts, testLogger())
	defer func() { _ = orch.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Complete)
}
