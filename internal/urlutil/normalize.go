// Package urlutil provides URL canonicalization and classification helpers
// shared by the link extractor, feed discoverer, and orchestrator.
package urlutil

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL string so that equal resources compare equal
// as plain strings. The transformation:
//
//  1. trims surrounding whitespace
//  2. if the trimmed string parses as an absolute URL (scheme+host present),
//     lowercases scheme and host, strips one trailing slash from the path,
//     drops the fragment, and preserves the query string exactly
//  3. otherwise, if it parses at all, lowercases it and strips a trailing
//     slash
//  4. on a parse failure, returns ""
//
// Equality is plain string equality on the result; query values keep their
// original case.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	if parsed.Scheme != "" && parsed.Host != "" {
		parsed.Scheme = strings.ToLower(parsed.Scheme)
		parsed.Host = strings.ToLower(parsed.Host)
		parsed.Fragment = ""
		parsed.RawFragment = ""
		parsed.Path = stripTrailingSlash(parsed.Path)

		out := parsed.Scheme + "://" + parsed.Host + parsed.Path
		if parsed.RawQuery != "" {
			out += "?" + parsed.RawQuery
		}
		return out
	}

	return stripTrailingSlash(strings.ToLower(trimmed))
}

func stripTrailingSlash(s string) string {
	if s != "" && strings.HasSuffix(s, "/") {
		return strings.TrimSuffix(s, "/")
	}
	return s
}
