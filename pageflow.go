package pageflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/html"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/history"
	"github.com/aretw0/pageflow/pkg/navigation"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/transition"
)

// Site is the high-level entry point of the library.
// It wires the page registry, content cache, transition controller, history bridge
// and navigation orchestrator for one browsing context.
type Site struct {
	Registry    *registry.Registry
	Cache       *cache.Cache
	Transitions *transition.Controller
	History     *history.Bridge
	Navigator   *navigation.Orchestrator

	extractor    ports.Extractor
	timings      *transition.Timings
	fetchTimeout time.Duration
	observer     cache.Observer
	hooks        domain.LifecycleHooks
	resume       domain.PageID
	preload      bool
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Site.
type Option func(*Site)

// WithRegistry replaces the default four-page registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Site) {
		s.Registry = reg
	}
}

// WithCache shares an existing cache, e.g. across many headless sessions.
// The cache must have been built over the same registry.
func WithCache(c *cache.Cache) Option {
	return func(s *Site) {
		s.Cache = c
	}
}

// WithExtractor sets how fragments are extracted from fetched documents
// (default: the inner markup of <main>).
func WithExtractor(e ports.Extractor) Option {
	return func(s *Site) {
		s.extractor = e
	}
}

// WithTimings overrides the transition phase durations.
func WithTimings(t transition.Timings) Option {
	return func(s *Site) {
		s.timings = &t
	}
}

// WithFetchTimeout bounds every fragment fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Site) {
		s.fetchTimeout = d
	}
}

// WithCacheObserver receives cache lookups and fetches.
func WithCacheObserver(o cache.Observer) Option {
	return func(s *Site) {
		s.observer = o
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Site) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) {
		s.logger = logger
	}
}

// WithResume marks id as already displayed; Start then skips the initial load.
func WithResume(id domain.PageID) Option {
	return func(s *Site) {
		s.resume = id
	}
}

// WithPreload controls whether Start warms the cache with every page (default: true).
func WithPreload(enabled bool) Option {
	return func(s *Site) {
		s.preload = enabled
	}
}

// New wires a Site around the given browser, rendering surface and fetcher.
// The fetcher may be nil when a shared cache is supplied with WithCache.
func New(browser ports.Browser, renderer ports.Renderer, fetcher ports.Fetcher, opts ...Option) (*Site, error) {
	s := &Site{preload: true}
	for _, opt := range opts {
		opt(s)
	}

	if browser == nil || renderer == nil {
		return nil, fmt.Errorf("browser and renderer are required")
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Registry == nil {
		s.Registry = registry.Default()
	}

	if s.Cache == nil {
		if fetcher == nil {
			return nil, fmt.Errorf("fetcher is required when no cache is provided")
		}
		if s.extractor == nil {
			s.extractor = html.NewMainExtractor()
		}
		cacheOpts := []cache.Option{cache.WithLogger(s.logger)}
		if s.fetchTimeout > 0 {
			cacheOpts = append(cacheOpts, cache.WithFetchTimeout(s.fetchTimeout))
		}
		if s.observer != nil {
			cacheOpts = append(cacheOpts, cache.WithObserver(s.observer))
		}
		s.Cache = cache.New(s.Registry, fetcher, s.extractor, cacheOpts...)
	}

	ctrlOpts := []transition.Option{transition.WithLogger(s.logger)}
	if s.timings != nil {
		ctrlOpts = append(ctrlOpts, transition.WithTimings(*s.timings))
	}
	s.Transitions = transition.New(renderer, ctrlOpts...)
	s.History = history.New(browser, s.Registry, history.WithLogger(s.logger))

	navOpts := []navigation.Option{
		navigation.WithHooks(s.hooks),
		navigation.WithLogger(s.logger),
	}
	if s.resume != "" {
		navOpts = append(navOpts, navigation.WithCurrent(s.resume))
	}

	nav, err := navigation.New(navigation.Dependencies{
		Registry:    s.Registry,
		Cache:       s.Cache,
		Transitions: s.Transitions,
		History:     s.History,
		Renderer:    renderer,
		Browser:     browser,
	}, navOpts...)
	if err != nil {
		return nil, err
	}
	s.Navigator = nav
	return s, nil
}

// Start displays the page the browser is on and, when enabled, preloads every
// page in the background. A resumed site skips the initial load.
func (s *Site) Start(ctx context.Context) error {
	if s.resume == "" {
		if err := s.Navigator.OnInitialLoad(ctx); err != nil {
			return fmt.Errorf("initial load: %w", err)
		}
	}
	if s.preload {
		go s.Cache.PreloadAll(context.WithoutCancel(ctx))
	}
	return nil
}

// Preload loads every page synchronously and reports which ones failed.
func (s *Site) Preload(ctx context.Context) cache.PreloadReport {
	return s.Cache.PreloadAll(ctx)
}

// Navigate moves to the page id, recording its registered location in history.
func (s *Site) Navigate(ctx context.Context, id domain.PageID) (navigation.Result, error) {
	page, err := s.Registry.Resolve(id)
	if err != nil {
		return navigation.Result{}, err
	}
	return s.Navigator.Navigate(ctx, id, page.Location)
}

// Follow handles a link activation.
func (s *Site) Follow(ctx context.Context, href string) (navigation.Result, error) {
	return s.Navigator.Follow(ctx, href)
}

// Hover preloads the target of href.
func (s *Site) Hover(ctx context.Context, href string) {
	s.Navigator.Hover(ctx, href)
}

// Back and Forward traverse the session history.
func (s *Site) Back() {
	s.Navigator.Back()
}

func (s *Site) Forward() {
	s.Navigator.Forward()
}

// Current returns the page whose content is visible.
func (s *Site) Current() domain.PageID {
	return s.Navigator.Current()
}
