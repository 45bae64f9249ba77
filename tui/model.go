// Package tui provides the Bubble Tea terminal UI for sitecrawl, displaying
// live crawl progress and a styled summary of results.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwalden/sitecrawl/crawler"
	"github.com/mwalden/sitecrawl/internal/broadcast"
)

// Model is the Bubble Tea model for the crawl TUI.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	orch       *crawler.Orchestrator
	spinner    spinner.Model
	progressCh <-chan broadcast.Event

	crawled      int
	queued       int
	currentDepth int
	message      string
	quitting     bool
	done         bool
	report       *crawler.CrawlReport
	err          error
	width        int
}

// NewModel creates a TUI model wired to the given Orchestrator, subscribing
// to its Progress Broadcaster.
func NewModel(ctx context.Context, cancel context.CancelFunc, orch *crawler.Orchestrator) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	progressCh, _ := orch.Subscribe()
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		orch:       orch,
		spinner:    spin,
		progressCh: progressCh,
	}
}

// Init starts the spinner, crawl, and progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForProgress(m.progressCh))
}

// startCrawl returns a tea.Cmd that runs the Orchestrator and sends
// CrawlDoneMsg.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		report, err := m.orch.Run(m.ctx)
		if err != nil {
			err = fmt.Errorf("crawl: %w", err)
		}
		return CrawlDoneMsg{Report: report, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case CrawlProgressMsg:
		m.crawled = msg.CrawledCount
		m.queued = msg.QueueCount
		m.currentDepth = msg.CurrentDepth
		m.message = msg.Message
		return m, waitForProgress(m.progressCh)

	case CrawlDoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.done && m.report != nil {
		return RenderSummary(m.report)
	}
	return fmt.Sprintf("%s Crawling... visited %d, queued %d (depth %d)\n%s\n",
		m.spinner.View(), m.crawled, m.queued, m.currentDepth,
		dimStyle.Render("  "+m.message))
}

// HasErrors reports whether any crawled page recorded a fetch error.
func (m Model) HasErrors() bool {
	if m.report == nil {
		return false
	}
	for _, r := range m.report.Results {
		if len(r.Errors) > 0 {
			return true
		}
	}
	return false
}

// GetReport returns the crawl report for output formatting.
func (m Model) GetReport() *crawler.CrawlReport {
	return m.report
}
