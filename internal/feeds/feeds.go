// Package feeds implements the Feed Discoverer (spec §4.4): at crawl start,
// it probes a handful of well-known feed/sitemap paths and extracts
// candidate URLs to seed the Frontier beyond what HTML link-following would
// reach on its own.
package feeds

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/mwalden/sitecrawl/internal/transport"
	"github.com/mwalden/sitecrawl/internal/urlutil"
)

// candidatePaths are probed relative to the site root, per spec §4.4.
var candidatePaths = []string{"sitemap.xml", "rss.xml", "feed.xml", "atom.xml"}

// element is a namespace-agnostic XML node: local name plus text content and
// attributes, used to find <loc> and <link> elements regardless of the
// document's declared namespace.
type element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nested  []element  `xml:",any"`
}

// Discover probes {scheme}://{host}/ for each well-known feed path and
// returns the union of well-formed absolute URLs found in <loc> elements
// (by local name) and <link> elements (href attribute or inner text),
// ignoring document namespaces.
func Discover(ctx context.Context, fetchFn transport.Fetch, scheme, host string, timeout time.Duration) []string {
	seen := make(map[string]bool)
	var out []string

	for _, p := range candidatePaths {
		url := scheme + "://" + host + "/" + p

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			cancel()
			continue
		}

		resp, err := fetchFn(reqCtx, req)
		cancel()
		if err != nil {
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			continue
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		_ = resp.Body.Close()

		for _, candidate := range extractURLs(buf.Bytes()) {
			if !urlutil.IsHTTPScheme(candidate) {
				continue
			}
			normalized := urlutil.Normalize(candidate)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			out = append(out, normalized)
		}
	}

	return out
}

// extractURLs parses body as XML and collects the text of every element
// whose local name is "loc", plus the href attribute or inner text of every
// "link" element, regardless of namespace prefix.
func extractURLs(body []byte) []string {
	var root element
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil
	}

	var out []string
	walk(&root, &out)
	return out
}

func walk(el *element, out *[]string) {
	if localName(el.XMLName.Local) == "loc" {
		if text := strings.TrimSpace(el.Content); text != "" {
			*out = append(*out, text)
		}
	}
	if localName(el.XMLName.Local) == "link" {
		if href := attrValue(el.Attrs, "href"); href != "" {
			*out = append(*out, href)
		} else if text := strings.TrimSpace(el.Content); text != "" {
			*out = append(*out, text)
		}
	}

	for i := range el.Nested {
		walk(&el.Nested[i], out)
	}
}

func localName(name string) string {
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if localName(a.Name.Local) == name {
			return a.Value
		}
	}
	return ""
}
