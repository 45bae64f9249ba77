package urlutil

import (
	"net/url"
	"strings"
)

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings, non-HTTP schemes, or unparseable URLs.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// SameHost decides whether rawURL shares an origin with seedHost, per the
// link classifier's same-origin rule (spec §4.2):
//   - a relative reference (no host component) is same-host
//   - a protocol-relative reference ("//host/...") is resolved against
//     https: and its host compared
//   - an absolute http/https URL must share seedHost, case-insensitively
//   - any other scheme is foreign
func SameHost(rawURL string, seedHost string) bool {
	if strings.HasPrefix(rawURL, "//") {
		resolved, err := url.Parse("https:" + rawURL)
		if err != nil {
			return false
		}
		return strings.EqualFold(resolved.Hostname(), seedHost)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Host == "" && parsed.Scheme == "" {
		// No host component: a relative reference against the current page.
		return true
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	return strings.EqualFold(parsed.Hostname(), seedHost)
}

// ResolveReference resolves a possibly-relative ref URL against a base URL.
// If ref is absolute, it is returned as-is. Otherwise it is resolved
// relative to base using net/url.URL.ResolveReference.
func ResolveReference(base string, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	resolved := baseURL.ResolveReference(refURL)
	return resolved.String(), nil
}
