// Package history keeps the browser's session history and document title in step
// with the visible page.
package history

import (
	"log/slog"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
)

// Bridge synchronises page identity with browser history entries.
type Bridge struct {
	browser  ports.Browser
	registry *registry.Registry
	logger   *slog.Logger
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a bridge over browser.
func New(browser ports.Browser, reg *registry.Registry, opts ...Option) *Bridge {
	b := &Bridge{
		browser:  browser,
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RecordNavigation pushes an entry tagged with id and updates the title.
func (b *Bridge) RecordNavigation(id domain.PageID, url string) {
	b.browser.PushState(domain.HistoryEntry{PageID: id, URL: url})
	b.SyncTitle(id)
}

// Seed tags the active entry (typically the document's first load) with id so a
// later pop back to it does not need to guess the page from the URL.
func (b *Bridge) Seed(id domain.PageID) {
	b.browser.ReplaceState(domain.HistoryEntry{PageID: id, URL: b.browser.Location()})
}

// SyncTitle sets the document title of id. The title is left unchanged when id
// has no descriptor or an empty title.
func (b *Bridge) SyncTitle(id domain.PageID) {
	page, ok := b.registry.Lookup(id)
	if !ok || page.Title == "" {
		b.logger.Debug("title left unchanged", "page", id)
		return
	}
	b.browser.SetTitle(page.Title)
}

// OnPop registers handler for back/forward traversal. The handler receives the
// page recorded in the entry, or the page identified from the current location
// for entries that carry none.
func (b *Bridge) OnPop(handler func(domain.PageID)) {
	b.browser.OnPopState(func(entry domain.HistoryEntry) {
		id := entry.PageID
		if id == "" {
			id = b.registry.IdentifyFromLocation(b.browser.Location())
		}
		handler(id)
	})
}
