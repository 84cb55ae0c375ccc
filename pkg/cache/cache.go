// Package cache holds the content fragments of the site's pages.
//
// Entries are created the first time a page is fetched and are never invalidated:
// the underlying pages are static for the lifetime of the process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a single fetch of a page document.
const DefaultFetchTimeout = 10 * time.Second

// Observer receives cache activity, typically to feed metrics.
type Observer interface {
	ObserveLookup(page domain.PageID, hit bool)
	ObserveFetch(page domain.PageID, elapsed time.Duration, err error)
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Fetches  int64 `json:"fetches"`
	Failures int64 `json:"failures"`
}

// PreloadReport lists the outcome of PreloadAll per page.
type PreloadReport struct {
	Loaded []domain.PageID
	Failed map[domain.PageID]error
}

// Cache maps page IDs to content fragments. Safe for concurrent use.
type Cache struct {
	registry  *registry.Registry
	fetcher   ports.Fetcher
	extractor ports.Extractor
	timeout   time.Duration
	observer  Observer
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[domain.PageID]string

	// inflight ensures at most one fetch per page at a time.
	inflight singleflight.Group

	hits, misses, fetches, failures atomic.Int64
}

// Option configures the Cache.
type Option func(*Cache)

// WithFetchTimeout bounds every fetch. A non-positive value disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

// WithObserver registers an observer for lookups and fetches.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// WithLogger configures the logger used for preload failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache for the pages of reg.
func New(reg *registry.Registry, fetcher ports.Fetcher, extractor ports.Extractor, opts ...Option) *Cache {
	c := &Cache{
		registry:  reg,
		fetcher:   fetcher,
		extractor: extractor,
		timeout:   DefaultFetchTimeout,
		logger:    logging.NewNop(),
		entries:   make(map[domain.PageID]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached fragment of id without blocking.
func (c *Cache) Get(id domain.PageID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fragment, ok := c.entries[id]
	return fragment, ok
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}

// Load returns the fragment of id, fetching and caching it on a miss.
// Concurrent loads of the same page share one fetch. Every failure is a
// *domain.FragmentLoadError and leaves the entry absent so a later call retries.
func (c *Cache) Load(ctx context.Context, id domain.PageID) (string, error) {
	if fragment, ok := c.Get(id); ok {
		c.hits.Inc()
		c.observeLookup(id, true)
		return fragment, nil
	}
	c.misses.Inc()
	c.observeLookup(id, false)

	page, err := c.registry.Resolve(id)
	if err != nil {
		return "", &domain.FragmentLoadError{PageID: id, Cause: err}
	}

	// The shared fetch runs detached from any single caller so that one caller
	// giving up does not fail the others waiting on it.
	ch := c.inflight.DoChan(string(id), func() (any, error) {
		return c.fetch(page)
	})

	select {
	case <-ctx.Done():
		return "", &domain.FragmentLoadError{PageID: id, Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) fetch(page domain.PageDescriptor) (string, error) {
	// A previous flight may have stored the entry after our lookup.
	if fragment, ok := c.Get(page.ID); ok {
		return fragment, nil
	}

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.fetches.Inc()
	start := time.Now()

	doc, err := c.fetchDocument(ctx, page.Location)
	if err != nil {
		return "", c.fail(page.ID, start, err)
	}

	fragment, ok := c.extractor.Extract(doc)
	if !ok {
		return "", c.fail(page.ID, start, domain.ErrMissingContent)
	}

	c.mu.Lock()
	c.entries[page.ID] = fragment
	c.mu.Unlock()

	c.observeFetch(page.ID, time.Since(start), nil)
	return fragment, nil
}

// fetchDocument enforces the deadline even against a fetcher that ignores its context.
func (c *Cache) fetchDocument(ctx context.Context, location string) ([]byte, error) {
	type result struct {
		doc []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := c.fetcher.Fetch(ctx, location)
		done <- result{doc, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", domain.ErrLoadTimeout, c.timeout, r.err)
		}
		return r.doc, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", domain.ErrLoadTimeout, c.timeout)
	}
}

func (c *Cache) fail(id domain.PageID, start time.Time, cause error) error {
	c.failures.Inc()
	c.observeFetch(id, time.Since(start), cause)
	return &domain.FragmentLoadError{PageID: id, Cause: cause}
}

// Preload opportunistically loads id. Failures are logged and swallowed;
// the page falls back to loading on demand.
func (c *Cache) Preload(ctx context.Context, id domain.PageID) {
	if _, err := c.Load(ctx, id); err != nil {
		c.logger.Warn("preload failed", "page", id, "err", err)
	}
}

// PreloadAll loads every registered page in parallel and waits for all of them.
// A failing page does not abort its siblings; it is logged and reported.
func (c *Cache) PreloadAll(ctx context.Context) PreloadReport {
	report := PreloadReport{Failed: make(map[domain.PageID]error)}
	var mu sync.Mutex

	var g errgroup.Group
	for _, page := range c.registry.Pages() {
		g.Go(func() error {
			_, err := c.Load(ctx, page.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("preload failed", "page", page.ID, "err", err)
				report.Failed[page.ID] = err
				return nil
			}
			report.Loaded = append(report.Loaded, page.ID)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("preload finished", "loaded", len(report.Loaded), "failed", len(report.Failed))
	return report
}

func (c *Cache) observeLookup(id domain.PageID, hit bool) {
	if c.observer != nil {
		c.observer.ObserveLookup(id, hit)
	}
}

func (c *Cache) observeFetch(id domain.PageID, elapsed time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveFetch(id, elapsed, err)
	}
}
