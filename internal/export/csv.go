// Package export renders crawl results as CSV (spec §6: "mechanical,
// specify only the row contract").
package export

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Row is the flattened shape of one CrawlResult for CSV export. Body and
// parsed-tree data are intentionally excluded; collection fields are
// rendered as element counts.
type Row struct {
	ID          string `json:"id"`
	RequestPath string `json:"request_path"`
	FoundURL    string `json:"found_url,omitempty"`
	Depth       int    `json:"depth"`
	StatusCode  int    `json:"status_code"`
	ErrorCount  int    `json:"error_count"`
	LinkCount   int    `json:"link_count"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// Header is the fixed CSV column order.
var Header = []string{"id", "request_path", "found_url", "depth", "status_code", "error_count", "link_count", "elapsed_ms"}

// WriteCSV writes rows to w with a header row, using \r\n line endings via
// the standard csv.Writer.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.ID,
			r.RequestPath,
			r.FoundURL,
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.StatusCode),
			strconv.Itoa(r.ErrorCount),
			strconv.Itoa(r.LinkCount),
			strconv.FormatInt(r.ElapsedMs, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
