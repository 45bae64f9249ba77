// Package sitemap implements the Sitemap Builder (spec §4.11): it renders
// the set of successfully-fetched URLs as a standard sitemaps.org urlset
// document.
package sitemap

import (
	"encoding/xml"
	"sort"
	"time"
)

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Build renders a sitemaps.org urlset document over urls, stamping every
// entry with today's date (UTC) per spec §4.11.
func Build(urls []string, now time.Time) ([]byte, error) {
	today := now.UTC().Format("2006-01-02")

	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, u := range urls {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        u,
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.5",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(xmlHeader)+len(body)+1)
	out = append(out, xmlHeader...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// SuccessfulURLs filters statusByURL down to the URLs that returned 200,
// the S set defined in spec §4.11, sorted for reproducible sitemap output.
func SuccessfulURLs(statusByURL map[string]int) []string {
	var out []string
	for u, status := range statusByURL {
		if status == 200 {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}
