package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalden/sitecrawl/config"
	"github.com/mwalden/sitecrawl/crawler"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sitecrawl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ParsesAllFields(t *testing.T) {
	path := writeTempConfig(t, `
seedUrl: https://example.com
maxPages: 50
maxDepth: 2
requestDelayMs: 100
userAgent: test-agent/1.0
respectRobotsTxt: false
discoverFromSitemapAndRss: false
savePagesToDisk: true
outputDirectory: out
validateHtml: true
timeoutSeconds: 5
useAdaptiveRateLimiting: false
maxConcurrentRequests: 4
followExternalLinks: true
includePatterns:
  - "^https://example.com/blog/"
excludePatterns:
  - "\\.pdf$"
generateSitemap: false
sitemapOutputPath: out/sitemap.xml
`)

	f, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", f.SeedURL)
	assert.Equal(t, 50, f.MaxPages)
	assert.Equal(t, 2, f.MaxDepth)
	assert.Equal(t, 100, f.RequestDelayMs)
	assert.Equal(t, "test-agent/1.0", f.UserAgent)
	require.NotNil(t, f.RespectRobotsTxt)
	assert.False(t, *f.RespectRobotsTxt)
	require.NotNil(t, f.DiscoverFromSitemapAndRss)
	assert.False(t, *f.DiscoverFromSitemapAndRss)
	assert.True(t, f.SavePagesToDisk)
	assert.Equal(t, "out", f.OutputDirectory)
	assert.True(t, f.ValidateHTML)
	assert.Equal(t, 5, f.TimeoutSeconds)
	require.NotNil(t, f.UseAdaptiveRateLimiting)
	assert.False(t, *f.UseAdaptiveRateLimiting)
	assert.Equal(t, 4, f.MaxConcurrentRequests)
	assert.True(t, f.FollowExternalLinks)
	assert.Equal(t, []string{"^https://example.com/blog/"}, f.IncludePatterns)
	assert.Equal(t, []string{`\.pdf$`}, f.ExcludePatterns)
	require.NotNil(t, f.GenerateSitemap)
	assert.False(t, *f.GenerateSitemap)
	assert.Equal(t, "out/sitemap.xml", f.SitemapOutputPath)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAMLReturnsError(t *testing.T) {
	path := writeTempConfig(t, "seedUrl: [this is not valid: yaml")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestApplyTo_OverridesOnlySetFields(t *testing.T) {
	base := crawler.DefaultOptions("https://base.example.com")
	base.MaxPages = 100

	f := config.File{MaxDepth: 7}
	merged := f.ApplyTo(base)

	assert.Equal(t, "https://base.example.com", merged.SeedURL, "unset SeedURL must not override base")
	assert.Equal(t, 100, merged.MaxPages, "unset MaxPages must not override base")
	assert.Equal(t, 7, merged.MaxDepth)
}

func TestApplyTo_FalsePointerBoolsOverrideTrueDefaults(t *testing.T) {
	base := crawler.DefaultOptions("https://base.example.com")
	require.True(t, base.RespectRobotsTxt)

	no := false
	f := config.File{RespectRobotsTxt: &no}
	merged := f.ApplyTo(base)

	assert.False(t, merged.RespectRobotsTxt)
}

func TestApplyTo_NilPointerBoolsLeaveDefaultsUntouched(t *testing.T) {
	base := crawler.DefaultOptions("https://base.example.com")
	merged := config.File{}.ApplyTo(base)

	assert.Equal(t, base.RespectRobotsTxt, merged.RespectRobotsTxt)
	assert.Equal(t, base.UseAdaptiveRateLimiting, merged.UseAdaptiveRateLimiting)
	assert.Equal(t, base.GenerateSitemap, merged.GenerateSitemap)
}
