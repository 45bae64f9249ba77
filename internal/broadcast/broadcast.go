// Package broadcast implements the Progress Broadcaster (spec §4.10):
// best-effort fan-out of crawl progress events to any number of
// subscribers, never blocking the Orchestrator on a slow consumer.
package broadcast

import "sync"

// Kind enumerates the lifecycle points an Event can report.
type Kind string

const (
	KindStarted  Kind = "started"
	KindProgress Kind = "progress"
	KindFinished Kind = "finished"
)

// Event is one progress notification.
type Event struct {
	Kind         Kind
	CrawledCount int
	QueueCount   int
	CurrentDepth int
	Message      string
}

const subscriberBuffer = 16

// Broadcaster fans out Events to subscribers. The zero value is not usable;
// construct with New.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its event stream, along
// with an unsubscribe function the caller must invoke when done listening.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers event to every current subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full has the event dropped
// rather than stalling the publisher.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports the number of currently registered subscribers,
// primarily for tests.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
