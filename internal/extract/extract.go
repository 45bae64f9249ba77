// Package extract implements the HTML Link Extractor (spec §4.6): it walks
// <a href> tags, resolves them against the fetched URL, strips query and
// fragment to maximize de-duplication, then normalizes and classifies each
// candidate.
package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mwalden/sitecrawl/internal/urlutil"
)

// Links parses body as HTML and returns an ordered, deduplicated list of
// same-document-first-seen links that pass normalization and classification.
// seedHost and followExternal gate the same-origin check; isAllowed, when
// non-nil, is applied in addition. Anchors with an empty href are skipped.
func Links(body, baseURL, seedHost string, followExternal bool, isAllowed func(candidate string) bool) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	seen := make(map[string]bool)
	var out []string

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key != "href" {
				continue
			}
			href := attr.Val
			if strings.TrimSpace(href) == "" {
				continue
			}
			href = stripQueryAndFragment(href)

			resolved, err := urlutil.ResolveReference(baseURL, href)
			if err != nil {
				continue
			}
			if !urlutil.IsHTTPScheme(resolved) {
				continue
			}

			normalized := urlutil.Normalize(resolved)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true

			if !urlutil.IsValidLink(normalized) {
				continue
			}
			if !followExternal && !urlutil.SameHost(normalized, seedHost) {
				continue
			}
			if isAllowed != nil && !isAllowed(normalized) {
				continue
			}
			out = append(out, normalized)
		}
	}
}

// stripQueryAndFragment removes the fragment and query tail from href, per
// spec §4.6's aggressive (de-duplication-maximizing) reference behavior. A
// query-preserving mode is a documented future option (spec §9), not
// implemented here.
func stripQueryAndFragment(href string) string {
	if idx := strings.IndexAny(href, "?#"); idx >= 0 {
		return href[:idx]
	}
	return href
}
