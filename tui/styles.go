package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwalden/sitecrawl/crawler"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RenderSummary produces a Lip Gloss styled summary of a finished crawl.
func RenderSummary(report *crawler.CrawlReport) string {
	if report == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	var failed []crawler.CrawlResult
	for _, r := range report.Results {
		if len(r.Errors) > 0 || r.StatusCode == 0 || r.StatusCode >= 400 {
			failed = append(failed, r)
		}
	}

	if len(failed) == 0 {
		builder.WriteString(successStyle.Render(fmt.Sprintf("Crawl complete: %d pages, no errors.", len(report.Results))))
		builder.WriteString("\n")
		if !report.Complete {
			builder.WriteString(dimStyle.Render("  (stopped early: crawl cancelled)"))
			builder.WriteString("\n")
		}
		return builder.String()
	}

	builder.WriteString(headerStyle.Render(fmt.Sprintf("## Errors (%d)", len(failed))))
	builder.WriteString("\n")

	rows := make([][]string, 0, len(failed))
	for _, r := range failed {
		status := fmt.Sprintf("%d", r.StatusCode)
		detail := ""
		if len(r.Errors) > 0 {
			detail = strings.Join(r.Errors, "; ")
		}
		rows = append(rows, []string{r.RequestPath, status, detail})
	}

	errTable := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("URL", "Status", "Error").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return statusErrorStyle
			}
			return urlStyle
		}).
		Rows(rows...)

	builder.WriteString(errTable.Render())
	builder.WriteString("\n\n")

	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Crawled %d pages, %d with errors", len(report.Results), len(failed))))
	builder.WriteString("\n")

	return builder.String()
}
