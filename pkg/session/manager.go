package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/navigation"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/transition"
	"github.com/google/uuid"
)

// EventSink receives the navigation events of every session.
type EventSink func(sessionID string, ev domain.NavigationEvent)

// View is what a client of a headless session sees after an operation.
type View struct {
	Session *domain.Snapshot `json:"session"`
	// Content is the visible fragment. It is empty after a full navigation
	// (see Session.Assigned), which the client is expected to perform itself.
	Content string             `json:"content"`
	Result  *navigation.Result `json:"result,omitempty"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store    ports.SnapshotStore
	registry *registry.Registry
	cache    *cache.Cache

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	timings transition.Timings
	hooks   domain.LifecycleHooks
	sink    EventSink
	newID   func() string
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides ports.DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithTimings sets the transition timings used by headless sessions (default: zero).
func WithTimings(t transition.Timings) Option {
	return func(m *Manager) {
		m.timings = t
	}
}

// WithLifecycleHooks registers hooks shared by every session, e.g. metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithEventSink forwards every navigation event tagged with its session.
func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithIDGenerator overrides the session ID generator (default: UUIDv4).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager. The cache is shared by every session.
func NewManager(store ports.SnapshotStore, reg *registry.Registry, c *cache.Cache, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		registry: reg,
		cache:    c,
		locks:    make(map[string]*lockEntry),
		lockTTL:  ports.DefaultLockTTL,
		newID:    uuid.NewString,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the page registry shared by every session.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Cache returns the fragment cache shared by every session.
func (m *Manager) Cache() *cache.Cache {
	return m.cache
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start opens a new session on location and performs the initial load.
// Nothing is persisted when the initial content cannot be loaded.
func (m *Manager) Start(ctx context.Context, location string) (View, error) {
	if location == "" {
		location = m.registry.Pages()[0].Location
	}
	id := m.newID()

	var view View
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		snap := domain.NewSnapshot(id, location)
		h, err := m.open(snap, false)
		if err != nil {
			return err
		}
		if err := h.site.Start(ctx); err != nil {
			return err
		}
		view, err = m.persist(ctx, h, nil)
		return err
	})
	if err != nil {
		return View{}, err
	}

	m.logger.Info("session started", "session_id", id, "page", view.Session.CurrentPage)
	return view, nil
}

// Get returns the current view of a session.
func (m *Manager) Get(ctx context.Context, sessionID string) (View, error) {
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	content, _ := m.cache.Load(ctx, snap.CurrentPage)
	return View{Session: snap, Content: content}, nil
}

// Navigate applies a navigation intent: target is either a page id or an href.
func (m *Manager) Navigate(ctx context.Context, sessionID, target string) (View, error) {
	return m.apply(ctx, sessionID, func(ctx context.Context, h *handle) (navigation.Result, error) {
		if _, ok := m.registry.Lookup(domain.PageID(target)); ok {
			return h.site.Navigate(ctx, domain.PageID(target))
		}
		return h.site.Follow(ctx, target)
	})
}

// Back traverses the session history one entry back.
func (m *Manager) Back(ctx context.Context, sessionID string) (View, error) {
	return m.traverse(ctx, sessionID, (*pageflow.Site).Back)
}

// Forward traverses the session history one entry forward.
func (m *Manager) Forward(ctx context.Context, sessionID string) (View, error) {
	return m.traverse(ctx, sessionID, (*pageflow.Site).Forward)
}

func (m *Manager) traverse(ctx context.Context, sessionID string, move func(*pageflow.Site)) (View, error) {
	return m.apply(ctx, sessionID, func(_ context.Context, h *handle) (navigation.Result, error) {
		from := h.site.Current()
		_, before := h.browser.Entries()
		assigned := len(h.browser.Assigned())

		move(h.site)

		_, after := h.browser.Entries()
		res := navigation.Result{From: from, To: h.site.Current(), URL: h.browser.Location()}
		switch {
		case len(h.browser.Assigned()) > assigned:
			res.Outcome = navigation.OutcomeFallback
		case before == after:
			// Already at the edge of the history.
			res.Outcome = navigation.OutcomeIgnored
		default:
			res.Outcome = navigation.OutcomeRestored
		}
		return res, nil
	})
}

// Delete removes the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

type handle struct {
	snap     *domain.Snapshot
	browser  *memory.Browser
	renderer *memory.Renderer
	site     *pageflow.Site
}

func (m *Manager) apply(ctx context.Context, sessionID string, op func(context.Context, *handle) (navigation.Result, error)) (View, error) {
	var view View
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		h, err := m.open(snap, true)
		if err != nil {
			return err
		}

		res, err := op(ctx, h)
		if err != nil {
			return err
		}
		view, err = m.persist(ctx, h, &res)
		return err
	})
	return view, err
}

// open rebuilds the engine of a session from its snapshot.
func (m *Manager) open(snap *domain.Snapshot, resume bool) (*handle, error) {
	h := &handle{
		snap:    snap,
		browser: memory.RestoreBrowser(snap),
	}

	var content string
	if resume {
		content, _ = m.cache.Get(snap.CurrentPage)
	}
	h.renderer = memory.NewRenderer(content)

	opts := []pageflow.Option{
		pageflow.WithRegistry(m.registry),
		pageflow.WithCache(m.cache),
		pageflow.WithTimings(m.timings),
		pageflow.WithLifecycleHooks(m.sessionHooks(snap.SessionID)),
		pageflow.WithLogger(m.logger.With("session_id", snap.SessionID)),
		pageflow.WithPreload(false),
	}
	if resume {
		opts = append(opts, pageflow.WithResume(snap.CurrentPage))
	}

	site, err := pageflow.New(h.browser, h.renderer, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", snap.SessionID, err)
	}
	h.site = site
	return h, nil
}

func (m *Manager) persist(ctx context.Context, h *handle, res *navigation.Result) (View, error) {
	h.browser.Capture(h.snap)
	h.snap.CurrentPage = h.site.Current()
	h.snap.UpdatedAt = time.Now()

	if err := m.store.Save(ctx, h.snap.SessionID, h.snap); err != nil {
		return View{}, fmt.Errorf("failed to save session %s: %w", h.snap.SessionID, err)
	}

	view := View{Session: h.snap.Clone(), Result: res}
	if res == nil || (res.Outcome != navigation.OutcomeFallback && res.Outcome != navigation.OutcomeExternal) {
		view.Content = h.renderer.Content()
	}
	return view, nil
}

func (m *Manager) sessionHooks(sessionID string) domain.LifecycleHooks {
	if m.sink == nil {
		return m.hooks
	}
	forward := func(_ context.Context, ev *domain.NavigationEvent) {
		m.sink(sessionID, *ev)
	}
	return m.hooks.Merge(domain.LifecycleHooks{
		OnBegin:    forward,
		OnComplete: forward,
		OnRejected: forward,
		OnFallback: forward,
		OnRestore:  forward,
	})
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
