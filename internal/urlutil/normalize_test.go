package urlutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalden/sitecrawl/internal/urlutil"
)

func TestNormalize_EquivalenceClasses(t *testing.T) {
	want := urlutil.Normalize("http://example.com/A")
	inputs := []string{
		"HTTP://Example.com/A/",
		"http://example.com/A",
		"http://example.com/A/",
		"http://example.com/A#frag",
	}
	for _, in := range inputs {
		assert.Equal(t, want, urlutil.Normalize(in), "input %q", in)
	}
}

func TestNormalize_PathCaseIsPreserved(t *testing.T) {
	assert.Equal(t, "https://example.com/Page", urlutil.Normalize("HTTPS://Example.Com/Page"))
}

func TestNormalize_PreservesQueryCase(t *testing.T) {
	assert.Equal(t, "http://example.com/Search?Q=Hello", urlutil.Normalize("HTTP://Example.com/Search?Q=Hello"))
}

func TestNormalize_RootPathCollapsesToHost(t *testing.T) {
	assert.Equal(t, urlutil.Normalize("http://example.com/"), urlutil.Normalize("http://example.com"))
}

func TestNormalize_DropsFragment(t *testing.T) {
	assert.Equal(t, "http://example.com/page", urlutil.Normalize("http://example.com/page#section-2"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"http://example.com/a/b/",
		"HTTPS://Foo.Bar/Baz?x=1",
		"relative/path/",
		"",
		"  http://x.com  ",
	}
	for _, in := range inputs {
		once := urlutil.Normalize(in)
		twice := urlutil.Normalize(once)
		assert.Equal(t, once, twice, "not idempotent for %q", in)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", urlutil.Normalize(""))
	assert.Equal(t, "", urlutil.Normalize("   "))
}

func TestNormalize_MalformedInput(t *testing.T) {
	// A raw control byte makes net/url.Parse fail outright.
	assert.Equal(t, "", urlutil.Normalize("http://example.com/\x7f\x00bad"))
}

func TestNormalize_RelativeFallback(t *testing.T) {
	assert.Equal(t, "/about", urlutil.Normalize("/ABOUT/"))
}
