package memory

import (
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
)

// Browser implements ports.Browser as an in-memory session history.
// Back and Forward dispatch pop handlers synchronously, after releasing the lock.
// Safe for concurrent use.
type Browser struct {
	mu       sync.Mutex
	entries  []domain.HistoryEntry
	index    int
	title    string
	assigned []string
	handlers []ports.PopHandler
}

// NewBrowser creates a browser whose document was loaded from location.
func NewBrowser(location string) *Browser {
	return &Browser{
		entries: []domain.HistoryEntry{{URL: location}},
	}
}

// RestoreBrowser recreates a browser from a session snapshot.
func RestoreBrowser(snap *domain.Snapshot) *Browser {
	b := &Browser{
		entries:  append([]domain.HistoryEntry(nil), snap.Entries...),
		index:    snap.Index,
		title:    snap.Title,
		assigned: append([]string(nil), snap.Assigned...),
	}
	if len(b.entries) == 0 {
		b.entries = []domain.HistoryEntry{{}}
	}
	if b.index < 0 || b.index >= len(b.entries) {
		b.index = len(b.entries) - 1
	}
	return b
}

// Capture writes the history, title and assignments into snap.
func (b *Browser) Capture(snap *domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap.Entries = append([]domain.HistoryEntry(nil), b.entries...)
	snap.Index = b.index
	snap.Title = b.title
	snap.Assigned = append([]string(nil), b.assigned...)
}

func (b *Browser) Location() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[b.index].URL
}

func (b *Browser) PushState(entry domain.HistoryEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry.URL = resolve(b.entries[b.index].URL, entry.URL)
	b.entries = append(b.entries[:b.index+1], entry)
	b.index++
}

func (b *Browser) ReplaceState(entry domain.HistoryEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry.URL = resolve(b.entries[b.index].URL, entry.URL)
	b.entries[b.index] = entry
}

func (b *Browser) Title() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.title
}

func (b *Browser) SetTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
}

// Assign records a full navigation. The new document gets its own history entry.
// Relative URLs are resolved against the active entry.
func (b *Browser) Assign(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	target = resolve(b.entries[b.index].URL, target)
	b.assigned = append(b.assigned, target)
	b.entries = append(b.entries[:b.index+1], domain.HistoryEntry{URL: target})
	b.index++
}

// Assigned returns the URLs passed to Assign, oldest first.
func (b *Browser) Assigned() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.assigned...)
}

// Entries returns a copy of the history stack and the active index.
func (b *Browser) Entries() ([]domain.HistoryEntry, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.HistoryEntry(nil), b.entries...), b.index
}

func (b *Browser) Back() {
	b.traverse(-1)
}

func (b *Browser) Forward() {
	b.traverse(1)
}

func (b *Browser) OnPopState(fn ports.PopHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *Browser) traverse(delta int) {
	b.mu.Lock()
	next := b.index + delta
	if next < 0 || next >= len(b.entries) {
		b.mu.Unlock()
		return
	}
	b.index = next
	entry := b.entries[next]
	handlers := append([]ports.PopHandler(nil), b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(entry)
	}
}

// resolve resolves ref against base the way a document resolves links.
// Relative bases stay relative: "index.html" + "#top" gives "index.html#top".
func resolve(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if b.IsAbs() {
		return b.ResolveReference(r).String()
	}

	root := &url.URL{Scheme: "http", Host: "document", Path: "/"}
	out := root.ResolveReference(b).ResolveReference(r)
	out.Scheme, out.Host = "", ""
	resolved := out.String()
	if !strings.HasPrefix(base, "/") && !strings.HasPrefix(ref, "/") {
		resolved = strings.TrimPrefix(resolved, "/")
	}
	return resolved
}
