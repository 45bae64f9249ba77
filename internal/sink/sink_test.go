package sink_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalden/sitecrawl/internal/sink"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSave_WritesIndexHTMLForRootPath(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, false, testLogger())

	err := s.Save("https://example.com/", "<html><body>hi</body></html>")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hi")
}

func TestSave_AddsHTMLExtensionWhenMissing(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, false, testLogger())

	err := s.Save("https://example.com/about", "<html></html>")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "about.html"))
	assert.NoError(t, err)
}

func TestSave_RewritesRelativeHrefsToAbsolute(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, false, testLogger())

	body := `<html><body><a href="/other">link</a><img src="pic.png"></body></html>`
	err := s.Save("https://example.com/section/page", body)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "section", "page.html"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `href="https://example.com/other"`)
	assert.Contains(t, out, `src="https://example.com/section/pic.png"`)
}

func TestSave_CreatesIntermediateDirectories(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, false, testLogger())

	err := s.Save("https://example.com/a/b/c", "<html></html>")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "a", "b", "c.html"))
	assert.NoError(t, err)
}

func TestSave_ValidationNeverFailsSave(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, true, testLogger())

	err := s.Save("https://example.com/gallery", `<html><body><img src="a.png"></body></html>`)
	assert.NoError(t, err)
}

func TestSave_LongPathIsTruncatedPreservingExtension(t *testing.T) {
	dir := t.TempDir()
	s := sink.New(dir, false, testLogger())

	longSegment := strings.Repeat("a", 300)
	err := s.Save("https://example.com/"+longSegment, "<html></html>")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".html"))
	assert.LessOrEqual(t, len(entries[0].Name()), 150)
}
