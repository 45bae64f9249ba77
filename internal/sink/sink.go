// Package sink implements the Sink (spec §4.9): it derives a safe on-disk
// path for a fetched page, rewrites relative URLs to absolute using goquery,
// optionally runs a lightweight HTML validator, and writes the result
// atomically under an output directory.
package sink

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxPathLen = 150

var rewriteAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
	"iframe": "src",
}

// Sink writes fetched pages to disk under a fixed output directory.
type Sink struct {
	outputDir    string
	validateHTML bool
	logger       *slog.Logger
}

// New creates a Sink rooted at outputDir (created lazily on first write).
func New(outputDir string, validateHTML bool, logger *slog.Logger) *Sink {
	return &Sink{outputDir: outputDir, validateHTML: validateHTML, logger: logger}
}

// Save rewrites relative references in body to absolute (using fetchedURL as
// base), derives a safe destination path, and atomically writes the result.
// It never returns an error that should abort the crawl; callers append the
// returned error text to the page's CrawlResult.Errors instead.
func (s *Sink) Save(fetchedURL, body string) error {
	rewritten, err := rewriteRelativeRefs(body, fetchedURL)
	if err != nil {
		s.logger.Warn("sink: rewrite failed, saving original body", "url", fetchedURL, "error", err)
		rewritten = body
	}

	if s.validateHTML {
		s.logValidation(fetchedURL, rewritten)
	}

	relPath := derivePath(fetchedURL)
	fullPath := filepath.Join(s.outputDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("sink: create directories: %w", err)
	}

	return writeAtomic(fullPath, []byte(rewritten))
}

// derivePath implements spec §4.9's path-derivation rules.
func derivePath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return randomFallbackName()
	}

	p := parsed.Path
	if p == "" || p == "/" {
		p = "index.html"
	}
	p = strings.TrimPrefix(p, "/")
	if filepath.Ext(p) == "" {
		p += ".html"
	}

	p = filepath.FromSlash(p)

	if len(p) > maxPathLen {
		ext := filepath.Ext(p)
		dir := filepath.Dir(p)
		base := strings.TrimSuffix(filepath.Base(p), ext)

		budget := maxPathLen - len(dir) - len(string(filepath.Separator)) - len(ext)
		if budget < 1 {
			return randomFallbackName()
		}
		if budget < len(base) {
			base = base[:budget]
		}
		p = filepath.Join(dir, base+ext)
	}

	return p
}

func randomFallbackName() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "page_" + hex.EncodeToString(buf) + ".html"
}

// rewriteRelativeRefs resolves every href/src reference named in rewriteAttrs
// against baseURL and rewrites it to an absolute URL, using goquery for DOM
// traversal and attribute mutation.
func rewriteRelativeRefs(body, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return body, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body, err
	}

	for tag, attr := range rewriteAttrs {
		doc.Find(tag + "[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			ref, ok := sel.Attr(attr)
			if !ok || ref == "" {
				return
			}
			refURL, err := url.Parse(ref)
			if err != nil {
				return
			}
			sel.SetAttr(attr, base.ResolveReference(refURL).String())
		})
	}

	html, err := doc.Html()
	if err != nil {
		return body, err
	}
	return html, nil
}

// validationFindings summarizes lightweight HTML quality checks (spec
// §4.9): parse errors and images missing alt text. It never fails a save.
type validationFindings struct {
	imagesMissingAlt int
}

func (s *Sink) logValidation(pageURL, body string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		s.logger.Warn("sink: HTML did not parse cleanly", "url", pageURL, "error", err)
		return
	}

	var findings validationFindings
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := sel.Attr("alt"); !ok {
			findings.imagesMissingAlt++
		}
	})

	if findings.imagesMissingAlt > 0 {
		s.logger.Info("sink: validation findings", "url", pageURL, "images_missing_alt", findings.imagesMissingAlt)
	}
}

// writeAtomic writes data to a temp file in the destination directory then
// renames it into place, avoiding partial writes on crash.
func writeAtomic(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, path.Base(destPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("sink: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sink: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sink: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sink: rename into place: %w", err)
	}
	return nil
}
