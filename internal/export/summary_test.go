package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalden/sitecrawl/internal/export"
)

func TestPrintSummary_NoErrors(t *testing.T) {
	var buf bytes.Buffer
	export.PrintSummary(&buf, []export.Row{{RequestPath: "https://example.com", StatusCode: 200}})

	out := buf.String()
	assert.Contains(t, out, "No errors found!")
	assert.Contains(t, out, "Crawled 1 URLs, 0 with errors")
}

func TestPrintSummary_ListsFailingRows(t *testing.T) {
	var buf bytes.Buffer
	export.PrintSummary(&buf, []export.Row{
		{RequestPath: "https://example.com", StatusCode: 200},
		{RequestPath: "https://example.com/missing", StatusCode: 404},
		{RequestPath: "https://example.com/timeout", StatusCode: 0, ErrorCount: 1},
	})

	out := buf.String()
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "example.com/missing")
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "transport error")
	assert.Contains(t, out, "Crawled 3 URLs, 2 with errors")
}
