// Package frontier implements the Frontier (spec §4.7): a FIFO/priority work
// queue of FrontierEntry paired with an exact visited set keyed by
// normalized URL, guarding admission against depth bounds, robots.txt, and
// re-admission.
package frontier

import (
	"container/heap"
	"strings"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	mmap "github.com/edsrzf/mmap-go"
	"os"
)

// Entry is one unit of pending work: a URL discovered at a given depth, with
// a scheduling priority where lower values are more urgent.
type Entry struct {
	URL      string
	Depth    int
	Priority int
}

// RobotsChecker reports whether a URL may be fetched under robots.txt rules.
// Satisfied by *robots.Registry.
type RobotsChecker interface {
	IsAllowed(rawURL string) bool
}

// Frontier is the crawl's exclusive owner of pending work and the visited
// set. It is safe for concurrent use by multiple workers.
type Frontier struct {
	mu sync.Mutex

	maxDepth       int
	respectRobots  bool
	robots         RobotsChecker
	prefilter      *bloom.BloomFilter
	prefilterFile  *os.File
	prefilterMap   mmap.MMap
	prefilterCount uint64
	visited        map[string]struct{}
	pq             priorityQueue
	seq            int
}

// Option configures optional behavior of a new Frontier.
type Option func(*Frontier)

// WithRobots enables robots.txt admission checks via the given checker.
func WithRobots(checker RobotsChecker) Option {
	return func(f *Frontier) {
		f.robots = checker
		f.respectRobots = true
	}
}

// New creates an empty Frontier bounded by maxDepth. A bloom filter is used
// as a fast-reject prefilter in front of the authoritative visited map: the
// map remains the source of truth (the filter's false positives never cause
// an incorrect rejection — a prefilter "maybe seen" result falls through to
// the exact map check), while a "definitely not seen" result skips the map
// lookup entirely on the hot path. The filter's bits live in memory; New
// also creates and memory-maps a temporary file sized to the filter's
// capacity, which Close unmaps and removes, but the filter neither reads
// from nor writes to that mapping.
func New(maxDepth int, opts ...Option) *Frontier {
	f := &Frontier{
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	if filter, file, region, err := newDiskBackedFilter(); err == nil {
		f.prefilter = filter
		f.prefilterFile = file
		f.prefilterMap = region
	}
	// A prefilter is a performance optimization, not a correctness
	// requirement; if it fails to allocate, admission falls back to the
	// authoritative map alone.

	heap.Init(&f.pq)
	return f
}

func newDiskBackedFilter() (*bloom.BloomFilter, *os.File, mmap.MMap, error) {
	filter := bloom.NewWithEstimates(100000, 0.001)

	file, err := os.CreateTemp(os.TempDir(), "sitecrawl-frontier-*.bloom")
	if err != nil {
		return nil, nil, nil, err
	}

	size := filter.Cap()
	if err := file.Truncate(int64(size)); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, nil, nil, err
	}

	region, err := mmap.MapRegion(file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, nil, nil, err
	}

	return filter, file, region, nil
}

// Close unmaps and removes the prefilter's temporary file, if one was
// allocated.
func (f *Frontier) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.prefilterMap == nil {
		return nil
	}
	path := f.prefilterFile.Name()
	_ = f.prefilterMap.Unmap()
	_ = f.prefilterFile.Close()
	f.prefilterMap = nil
	return os.Remove(path)
}

// TryAdmit attempts to admit url discovered at fromDepth (the depth of the
// page that linked to it; the admitted entry's depth is fromDepth+1). It
// returns true if the URL was newly enqueued.
func (f *Frontier) TryAdmit(url string, fromDepth int) bool {
	depth := fromDepth + 1
	if depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	maybeSeen := f.prefilter == nil || f.prefilter.TestString(url)
	if maybeSeen {
		if _, seen := f.visited[url]; seen {
			return false
		}
	}

	if f.respectRobots && f.robots != nil && !f.robots.IsAllowed(url) {
		return false
	}

	f.visited[url] = struct{}{}
	if f.prefilter != nil {
		f.prefilter.AddString(url)
	}

	priority := computePriority(depth, url)
	f.seq++
	heap.Push(&f.pq, &entryNode{entry: Entry{URL: url, Depth: depth, Priority: priority}, seq: f.seq})
	return true
}

// computePriority implements spec §4.7's priority formula, clamped to
// [1, 10] (lower is more urgent).
func computePriority(depth int, url string) int {
	p := depth
	lower := strings.ToLower(url)
	if strings.Contains(lower, "index") || strings.Contains(lower, "home") || strings.Contains(lower, "main") {
		p--
	}
	if strings.Contains(url, "?") {
		p++
	}
	if strings.Contains(url, "#") {
		p += 2
	}
	if p < 1 {
		p = 1
	}
	if p > 10 {
		p = 10
	}
	return p
}

// Pop removes and returns the highest-priority (lowest Priority value,
// ties broken FIFO) entry. ok is false when the Frontier is empty.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pq.Len() == 0 {
		return Entry{}, false
	}
	node := heap.Pop(&f.pq).(*entryNode)
	return node.entry, true
}

// Len reports the number of entries currently queued.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pq.Len()
}

// VisitedCount reports the number of distinct URLs ever admitted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

type entryNode struct {
	entry Entry
	seq   int
}

// priorityQueue is a container/heap.Interface ordering by Priority ascending
// then by insertion sequence (FIFO among equal priorities).
type priorityQueue []*entryNode

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].entry.Priority != pq[j].entry.Priority {
		return pq[i].entry.Priority < pq[j].entry.Priority
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(*entryNode))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
