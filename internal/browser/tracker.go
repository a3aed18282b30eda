package browser

import (
	"sort"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
)

const targetTypePage = "page"

// pageTracker follows the page targets of one browser. It records the domain
// of every top-level page the user visits and signals when the last page has
// been closed. Its handlers run on chromedp's event goroutine, so they never
// block.
type pageTracker struct {
	mu      sync.Mutex
	pages   map[target.ID]struct{}
	gone    map[target.ID]struct{}
	seen    bool
	visited map[string]struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

func newPageTracker() *pageTracker {
	return &pageTracker{
		pages:   make(map[target.ID]struct{}),
		gone:    make(map[target.ID]struct{}),
		visited: make(map[string]struct{}),
		closed:  make(chan struct{}),
	}
}

func (t *pageTracker) handleBrowserEvent(ev any) {
	switch ev := ev.(type) {
	case *target.EventTargetCreated:
		t.observe(ev.TargetInfo)
	case *target.EventTargetInfoChanged:
		t.observe(ev.TargetInfo)
	case *target.EventTargetDestroyed:
		t.forget(ev.TargetID)
	}
}

// handleTargetEvent sees events of the first tab only.
func (t *pageTracker) handleTargetEvent(ev any) {
	if ev, ok := ev.(*page.EventFrameNavigated); ok && ev.Frame != nil && ev.Frame.ParentID == "" {
		t.visit(ev.Frame.URL)
	}
}

// sync folds a full target listing into the tracker. Pages are only added
// here; removal is left to TargetDestroyed events. A listing can be older
// than an event already handled, so destroyed ids are never re-added.
func (t *pageTracker) sync(infos []*target.Info) {
	for _, info := range infos {
		t.observe(info)
	}
}

func (t *pageTracker) observe(info *target.Info) {
	// Prerendered pages are page targets too, but have no window.
	if info == nil || info.Type != targetTypePage || info.Subtype == "prerender" {
		return
	}
	t.mu.Lock()
	if _, destroyed := t.gone[info.TargetID]; !destroyed {
		t.pages[info.TargetID] = struct{}{}
		t.seen = true
	}
	t.mu.Unlock()
	t.visit(info.URL)
}

func (t *pageTracker) forget(id target.ID) {
	t.mu.Lock()
	_, known := t.pages[id]
	delete(t.pages, id)
	t.gone[id] = struct{}{}
	lastClosed := known && t.seen && len(t.pages) == 0
	t.mu.Unlock()

	if lastClosed {
		t.closeOnce.Do(func() { close(t.closed) })
	}
}

func (t *pageTracker) visit(rawURL string) {
	domain := cookies.DomainFromURL(rawURL)
	if domain == "" {
		return
	}
	t.mu.Lock()
	t.visited[domain] = struct{}{}
	t.mu.Unlock()
}

// Closed is closed once every page that was ever open has been destroyed.
func (t *pageTracker) Closed() <-chan struct{} {
	return t.closed
}

func (t *pageTracker) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// OpenPages is the number of page targets currently open.
func (t *pageTracker) OpenPages() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pages)
}

// Visited returns the visited domains, sorted.
func (t *pageTracker) Visited() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.visited))
	for d := range t.visited {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
