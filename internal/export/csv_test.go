package export_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalden/sitecrawl/internal/export"
)

func TestWriteCSV_EmitsHeaderEvenWithNoRows(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, export.WriteCSV(&buf, nil))

	assert.Equal(t, strings.Join(export.Header, ",")+"\r\n", buf.String())
}

func TestWriteCSV_EmitsOneRowPerResult(t *testing.T) {
	var buf strings.Builder
	rows := []export.Row{
		{ID: "abc123", RequestPath: "https://example.com/", Depth: 1, StatusCode: 200, LinkCount: 3, ElapsedMs: 42},
	}
	require.NoError(t, export.WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "https://example.com/")
	assert.Contains(t, lines[1], "200")
}

func TestWriteCSV_QuotesFieldsContainingCommas(t *testing.T) {
	var buf strings.Builder
	rows := []export.Row{
		{ID: "x", RequestPath: "https://example.com/?a=1,2", StatusCode: 200},
	}
	require.NoError(t, export.WriteCSV(&buf, rows))

	assert.Contains(t, buf.String(), `"https://example.com/?a=1,2"`)
}
