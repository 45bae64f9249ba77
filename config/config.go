// Package config loads an optional YAML crawl configuration file, merged
// under explicit CLI flags so that an explicitly-set flag always wins over
// a config-file value.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mwalden/sitecrawl/crawler"
)

// File is the on-disk shape of a crawl config file (YAML tags are
// lowerCamelCase, matching the field names below without the Go
// capitalization).
type File struct {
	SeedURL                   string   `yaml:"seedUrl"`
	MaxPages                  int      `yaml:"maxPages"`
	MaxDepth                  int      `yaml:"maxDepth"`
	RequestDelayMs            int      `yaml:"requestDelayMs"`
	UserAgent                 string   `yaml:"userAgent"`
	RespectRobotsTxt          *bool    `yaml:"respectRobotsTxt"`
	DiscoverFromSitemapAndRss *bool    `yaml:"discoverFromSitemapAndRss"`
	SavePagesToDisk           bool     `yaml:"savePagesToDisk"`
	OutputDirectory           string   `yaml:"outputDirectory"`
	ValidateHTML              bool     `yaml:"validateHtml"`
	TimeoutSeconds            int      `yaml:"timeoutSeconds"`
	UseAdaptiveRateLimiting   *bool    `yaml:"useAdaptiveRateLimiting"`
	MaxConcurrentRequests     int      `yaml:"maxConcurrentRequests"`
	FollowExternalLinks       bool     `yaml:"followExternalLinks"`
	IncludePatterns           []string `yaml:"includePatterns"`
	ExcludePatterns           []string `yaml:"excludePatterns"`
	GenerateSitemap           *bool    `yaml:"generateSitemap"`
	SitemapOutputPath         string   `yaml:"sitemapOutputPath"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// ApplyTo merges f into base, a crawler.CrawlOptions already populated with
// defaults. Only fields present in f (non-zero, or explicitly-set pointer
// bools) override base; base's other values are left untouched. The CLI
// applies explicit flags to the merged result afterwards, so flags win.
func (f File) ApplyTo(base crawler.CrawlOptions) crawler.CrawlOptions {
	if f.SeedURL != "" {
		base.SeedURL = f.SeedURL
	}
	if f.MaxPages != 0 {
		base.MaxPages = f.MaxPages
	}
	if f.MaxDepth != 0 {
		base.MaxDepth = f.MaxDepth
	}
	if f.RequestDelayMs != 0 {
		base.RequestDelayMs = f.RequestDelayMs
	}
	if f.UserAgent != "" {
		base.UserAgent = f.UserAgent
	}
	if f.RespectRobotsTxt != nil {
		base.RespectRobotsTxt = *f.RespectRobotsTxt
	}
	if f.DiscoverFromSitemapAndRss != nil {
		base.DiscoverFromSitemapAndRss = *f.DiscoverFromSitemapAndRss
	}
	if f.SavePagesToDisk {
		base.SavePagesToDisk = true
	}
	if f.OutputDirectory != "" {
		base.OutputDirectory = f.OutputDirectory
	}
	if f.ValidateHTML {
		base.ValidateHTML = true
	}
	if f.TimeoutSeconds != 0 {
		base.TimeoutSeconds = f.TimeoutSeconds
	}
	if f.UseAdaptiveRateLimiting != nil {
		base.UseAdaptiveRateLimiting = *f.UseAdaptiveRateLimiting
	}
	if f.MaxConcurrentRequests != 0 {
		base.MaxConcurrentRequests = f.MaxConcurrentRequests
	}
	if f.FollowExternalLinks {
		base.FollowExternalLinks = true
	}
	if len(f.IncludePatterns) > 0 {
		base.IncludePatterns = f.IncludePatterns
	}
	if len(f.ExcludePatterns) > 0 {
		base.ExcludePatterns = f.ExcludePatterns
	}
	if f.GenerateSitemap != nil {
		base.GenerateSitemap = *f.GenerateSitemap
	}
	if f.SitemapOutputPath != "" {
		base.SitemapOutputPath = f.SitemapOutputPath
	}
	return base
}
