package robots_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalden/sitecrawl/internal/robots"
)

func staticFetch(status int, body string) robots.Fetch {
	return func(ctx context.Context, url string) (int, []byte, error) {
		return status, []byte(body), nil
	}
}

func TestRegistry_DisallowedPath(t *testing.T) {
	body := "User-agent: *\nDisallow: /private/\n"
	reg := robots.New(staticFetch(200, body), "testbot/1.0", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")

	assert.False(t, reg.IsAllowed("http://example.com/private/secret"))
	assert.True(t, reg.IsAllowed("http://example.com/ok"))
}

func TestRegistry_NoRulesAllowsAll(t *testing.T) {
	reg := robots.New(staticFetch(404, ""), "testbot/1.0", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")
	assert.True(t, reg.IsAllowed("http://example.com/anything"))
}

func TestRegistry_NetworkErrorFailsOpen(t *testing.T) {
	fetch := func(ctx context.Context, url string) (int, []byte, error) {
		return 0, nil, assert.AnError
	}
	reg := robots.New(fetch, "testbot/1.0", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")
	assert.True(t, reg.IsAllowed("http://example.com/anything"))
}

func TestRegistry_UnknownHostAllowsAll(t *testing.T) {
	reg := robots.New(staticFetch(200, "User-agent: *\nDisallow: /x\n"), "testbot/1.0", nil)
	// Never processed example.org.
	assert.True(t, reg.IsAllowed("http://example.org/x"))
}

func TestRegistry_GroupSelection(t *testing.T) {
	body := "User-agent: googlebot\nDisallow: /only-google\n\nUser-agent: *\nDisallow: /everyone\n"
	reg := robots.New(staticFetch(200, body), "mycrawler/1.0", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")

	// Our UA doesn't match "googlebot"; the "*" group should be selected.
	assert.True(t, reg.IsAllowed("http://example.com/only-google"))
	assert.False(t, reg.IsAllowed("http://example.com/everyone"))
}

func TestRegistry_UAMatchesConfiguredAgent(t *testing.T) {
	body := "User-agent: mycrawler\nDisallow: /blocked\n"
	reg := robots.New(staticFetch(200, body), "mycrawler/2.0 (+https://example.com/bot)", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")
	assert.False(t, reg.IsAllowed("http://example.com/blocked"))
}

func TestRegistry_WildcardPatterns(t *testing.T) {
	body := "User-agent: *\n" +
		"Disallow: /prefix*\n" +
		"Disallow: *.pdf\n" +
		"Disallow: /mid*dle/\n"
	reg := robots.New(staticFetch(200, body), "bot", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")

	assert.False(t, reg.IsAllowed("http://example.com/prefixed/page"))
	assert.False(t, reg.IsAllowed("http://example.com/file.pdf"))
	assert.False(t, reg.IsAllowed("http://example.com/mid12345dle/"))
	assert.True(t, reg.IsAllowed("http://example.com/other"))
}

func TestRegistry_ProcessHostIsIdempotent(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, url string) (int, []byte, error) {
		calls++
		return 200, []byte("User-agent: *\nDisallow: /x\n"), nil
	}
	reg := robots.New(fetch, "bot", nil)
	reg.ProcessHost(context.Background(), "http", "example.com")
	reg.ProcessHost(context.Background(), "http", "example.com")
	assert.Equal(t, 1, calls)
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /x\n"))
	}))
	defer srv.Close()

	fetch := robots.HTTPFetch(srv.Client())
	status, body, err := fetch(context.Background(), srv.URL+"/robots.txt")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(body), "Disallow")
}
