package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwalden/sitecrawl/crawler"
	"github.com/mwalden/sitecrawl/internal/broadcast"
)

// CrawlProgressMsg reports one Progress Broadcaster event.
type CrawlProgressMsg struct {
	Kind         broadcast.Kind
	CrawledCount int
	QueueCount   int
	CurrentDepth int
	Message      string
}

// CrawlDoneMsg signals the crawl has completed (or failed).
type CrawlDoneMsg struct {
	Report *crawler.CrawlReport
	Err    error
}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel. When the channel closes, it returns a CrawlDoneMsg with a nil
// Report (the actual report arrives separately via startCrawl).
func waitForProgress(ch <-chan broadcast.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return CrawlDoneMsg{}
		}
		return CrawlProgressMsg{
			Kind:         evt.Kind,
			CrawledCount: evt.CrawledCount,
			QueueCount:   evt.QueueCount,
			CurrentDepth: evt.CurrentDepth,
			Message:      evt.Message,
		}
	}
}
