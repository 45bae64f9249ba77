package urlutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalden/sitecrawl/internal/urlutil"
)

func TestSameHost(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		seedHost string
		want     bool
	}{
		{"same host", "https://example.com/page", "example.com", true},
		{"scheme agnostic", "http://example.com/page", "example.com", true},
		{"subdomain is foreign", "https://blog.example.com/post", "example.com", false},
		{"different domain", "https://other.com/page", "example.com", false},
		{"relative path", "/about", "example.com", true},
		{"bare relative", "about", "example.com", true},
		{"protocol relative same host", "//example.com/x", "example.com", true},
		{"protocol relative other host", "//cdn.other.com/x", "example.com", false},
		{"non-http scheme is foreign", "mailto:a@example.com", "example.com", false},
		{"case insensitive host", "https://EXAMPLE.com/page", "example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlutil.SameHost(tt.target, tt.seedHost))
		})
	}
}

func TestIsHTTPScheme(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"https scheme", "https://example.com", true},
		{"http scheme", "http://example.com", true},
		{"mailto scheme", "mailto:user@example.com", false},
		{"tel scheme", "tel:+1234567890", false},
		{"javascript scheme", "javascript:void(0)", false},
		{"ftp scheme", "ftp://files.example.com", false},
		{"empty string", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlutil.IsHTTPScheme(tt.input))
		})
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		ref     string
		want    string
		wantErr bool
	}{
		{"absolute URL returned as-is", "https://example.com", "https://other.com/page", "https://other.com/page", false},
		{"relative path resolved", "https://example.com/blog/", "post1", "https://example.com/blog/post1", false},
		{"root-relative resolved", "https://example.com/blog/", "/about", "https://example.com/about", false},
		{"protocol-relative", "https://example.com", "//cdn.example.com/file", "https://cdn.example.com/file", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := urlutil.ResolveReference(tt.base, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
