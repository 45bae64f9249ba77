package export

import (
	"fmt"
	"io"
)

// PrintSummary writes a plain-text crawl summary to w: one block per
// failing row (status >= 400, or 0 for a transport-level failure), then a
// totals line. Used by non-interactive (--no-tui) CLI runs.
func PrintSummary(w io.Writer, rows []Row) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	var failed int
	for i, r := range rows {
		if r.StatusCode != 0 && r.StatusCode < 400 {
			continue
		}
		if failed == 0 {
			writef("Errors:\n")
		}
		failed++
		writef("  URL: %s\n", r.RequestPath)
		if r.StatusCode == 0 {
			writef("  Status: (transport error, see error_count)\n")
		} else {
			writef("  Status: %d\n", r.StatusCode)
		}
		if i < len(rows)-1 {
			writef("\n")
		}
	}
	if failed == 0 {
		writef("No errors found!\n")
	}
	writef("Crawled %d URLs, %d with errors\n", len(rows), failed)
}
