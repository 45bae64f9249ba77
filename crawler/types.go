// Package crawler implements the polite, bounded, breadth-first web
// crawler: it drives the Frontier, Robots Registry, Rate Governor, Page
// Fetcher, HTML Link Extractor, Sink, Progress Broadcaster, Sitemap
// Builder, and Performance Tracker to completion.
package crawler

import (
	"regexp"
	"time"
)

// CrawlOptions configures one crawl. SeedURL is the only required field;
// the rest have sane defaults applied by DefaultOptions.
type CrawlOptions struct {
	SeedURL                   string
	MaxPages                  int
	MaxDepth                  int
	RequestDelayMs            int
	UserAgent                 string
	RespectRobotsTxt          bool
	DiscoverFromSitemapAndRss bool
	SavePagesToDisk           bool
	OutputDirectory           string
	ValidateHTML              bool
	TimeoutSeconds            int
	UseAdaptiveRateLimiting   bool
	MaxConcurrentRequests     int
	FollowExternalLinks       bool
	IncludePatterns           []string
	ExcludePatterns           []string
	GenerateSitemap           bool
	SitemapOutputPath         string

	includeRe []*regexp.Regexp
	excludeRe []*regexp.Regexp
}

// DefaultOptions returns a CrawlOptions with the teacher-matching baseline
// defaults (politeness-first: small worker pool, conservative depth).
func DefaultOptions(seedURL string) CrawlOptions {
	return CrawlOptions{
		SeedURL:                   seedURL,
		MaxPages:                  100,
		MaxDepth:                  3,
		RequestDelayMs:            200,
		UserAgent:                 "sitecrawl/1.0 (+https://github.com/mwalden/sitecrawl)",
		RespectRobotsTxt:          true,
		DiscoverFromSitemapAndRss: true,
		SavePagesToDisk:           false,
		OutputDirectory:           "pages",
		ValidateHTML:              false,
		TimeoutSeconds:            10,
		UseAdaptiveRateLimiting:   true,
		MaxConcurrentRequests:     3,
		FollowExternalLinks:       false,
		GenerateSitemap:           true,
		SitemapOutputPath:         "sitemap.xml",
	}
}

// compilePatterns compiles IncludePatterns/ExcludePatterns, memoizing the
// result on the options value. Invalid patterns are skipped (logged by the
// caller), not fatal: a malformed regex narrows filtering, it does not
// abort a crawl.
func (o *CrawlOptions) compilePatterns(onError func(pattern string, err error)) {
	compile := func(patterns []string) []*regexp.Regexp {
		var out []*regexp.Regexp
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				if onError != nil {
					onError(p, err)
				}
				continue
			}
			out = append(out, re)
		}
		return out
	}
	o.includeRe = compile(o.IncludePatterns)
	o.excludeRe = compile(o.ExcludePatterns)
}

// matchesPatterns reports whether url passes the compiled include/exclude
// filters: it must match at least one include pattern (if any are
// configured) and must not match any exclude pattern.
func (o *CrawlOptions) matchesPatterns(url string) bool {
	if len(o.excludeRe) > 0 {
		for _, re := range o.excludeRe {
			if re.MatchString(url) {
				return false
			}
		}
	}
	if len(o.includeRe) == 0 {
		return true
	}
	for _, re := range o.includeRe {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// CrawlResult is the per-URL record produced exactly once by a successful
// Frontier admission (spec §3).
type CrawlResult struct {
	ID             string
	RequestPath    string
	FoundURL       string
	Depth          int
	StatusCode     int
	ResponseBody   string
	Errors         []string
	StartTime      time.Time
	CompletionTime time.Time
	ElapsedMs      int64
	Links          []string
}

// CrawlReport is the crawl's terminal output (spec §6).
type CrawlReport struct {
	SeedURL    string
	MaxPages   int
	Results    []CrawlResult
	SitemapXML []byte
	Complete   bool
}
