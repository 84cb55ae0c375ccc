package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/history"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/transition"
)

// Outcome classifies what a navigation intent led to.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed" // content swapped in place
	OutcomeIgnored   Outcome = "ignored"   // same page, or a transition was in flight
	OutcomeFallback  Outcome = "fallback"  // fragment unavailable, full navigation performed
	OutcomeExternal  Outcome = "external"  // not an in-app page, full navigation performed
	OutcomeRestored  Outcome = "restored"  // content restored from a history pop
)

// Result describes a handled navigation intent.
type Result struct {
	Outcome   Outcome          `json:"outcome"`
	From      domain.PageID    `json:"from,omitempty"`
	To        domain.PageID    `json:"to,omitempty"`
	Direction domain.Direction `json:"direction,omitempty"`
	URL       string           `json:"url,omitempty"`
	Err       error            `json:"-"`
}

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Registry    *registry.Registry
	Cache       *cache.Cache
	Transitions *transition.Controller
	History     *history.Bridge
	Renderer    ports.Renderer
	Browser     ports.Browser
}

func (d Dependencies) validate() error {
	switch {
	case d.Registry == nil:
		return fmt.Errorf("navigation: registry is required")
	case d.Cache == nil:
		return fmt.Errorf("navigation: cache is required")
	case d.Transitions == nil:
		return fmt.Errorf("navigation: transition controller is required")
	case d.History == nil:
		return fmt.Errorf("navigation: history bridge is required")
	case d.Renderer == nil:
		return fmt.Errorf("navigation: renderer is required")
	case d.Browser == nil:
		return fmt.Errorf("navigation: browser is required")
	}
	return nil
}

// Orchestrator coordinates cache, transitions and history for every navigation.
type Orchestrator struct {
	registry    *registry.Registry
	cache       *cache.Cache
	transitions *transition.Controller
	history     *history.Bridge
	renderer    ports.Renderer
	browser     ports.Browser

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	mu      sync.Mutex
	current domain.PageID
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCurrent resumes an orchestrator whose page is already displayed, skipping
// OnInitialLoad. Used to rebuild a headless session from its snapshot.
func WithCurrent(id domain.PageID) Option {
	return func(o *Orchestrator) {
		o.current = id
	}
}

// New creates an orchestrator and subscribes it to history pops.
func New(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		registry:    deps.Registry,
		cache:       deps.Cache,
		transitions: deps.Transitions,
		history:     deps.History,
		renderer:    deps.Renderer,
		browser:     deps.Browser,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.history.OnPop(o.restore)
	return o, nil
}

// Current returns the page whose content is visible.
func (o *Orchestrator) Current() domain.PageID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) setCurrent(id domain.PageID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = id
}

// State returns the transition state.
func (o *Orchestrator) State() domain.TransitionState {
	return o.transitions.State()
}

// OnInitialLoad identifies the page the browser loaded and displays its fragment
// directly, without a transition.
func (o *Orchestrator) OnInitialLoad(ctx context.Context) error {
	location := o.browser.Location()
	id := o.registry.IdentifyFromLocation(location)
	o.setCurrent(id)
	o.history.Seed(id)

	fragment, err := o.cache.Load(ctx, id)
	if err != nil {
		// The server-rendered document stays on screen.
		o.logger.Warn("initial content unavailable", "page", id, "location", location, "err", err)
		return err
	}

	o.renderer.SetContent(fragment)
	o.history.SyncTitle(id)
	o.logger.Debug("initial load", "page", id, "location", location)
	return nil
}

// Navigate moves to target, recording url in history.
// It is a no-op when target is already displayed or a transition is in flight.
// Only programming errors (an unknown target) are returned as errors; load
// failures are recovered with a full navigation and reported in the Result.
func (o *Orchestrator) Navigate(ctx context.Context, target domain.PageID, url string) (Result, error) {
	from := o.Current()
	res := Result{From: from, To: target, URL: url}

	if target == from || !o.transitions.Idle() {
		res.Outcome = OutcomeIgnored
		o.emit(ctx, o.hooks.OnRejected, domain.EventNavigationRejected, res, 0)
		return res, nil
	}

	if _, err := o.registry.Resolve(target); err != nil {
		return res, err
	}

	res.Direction = transition.Direction(o.registry.Index(from), o.registry.Index(target))
	if !o.transitions.Begin(ctx, res.Direction) {
		res.Outcome = OutcomeIgnored
		o.emit(ctx, o.hooks.OnRejected, domain.EventNavigationRejected, res, 0)
		return res, nil
	}

	// Another navigation may have completed between reading the current page
	// and acquiring the gate.
	if o.Current() != from {
		o.transitions.Complete(ctx)
		res.Outcome = OutcomeIgnored
		o.emit(ctx, o.hooks.OnRejected, domain.EventNavigationRejected, res, 0)
		return res, nil
	}
	o.emit(ctx, o.hooks.OnBegin, domain.EventTransitionBegin, res, 0)

	fragment, err := o.cache.Load(ctx, target)
	if err != nil {
		o.logger.Warn("fragment unavailable, falling back to full navigation",
			"from", from, "to", target, "url", url, "err", err)
		o.browser.Assign(url)
		o.setCurrent(target)

		elapsed := o.transitions.Complete(ctx)
		res.Outcome = OutcomeFallback
		res.Err = err
		o.emit(ctx, o.hooks.OnFallback, domain.EventNavigationFallback, res, elapsed)
		return res, nil
	}

	o.renderer.SetContent(fragment)
	o.setCurrent(target)
	o.history.RecordNavigation(target, url)

	elapsed := o.transitions.Complete(ctx)
	res.Outcome = OutcomeCompleted
	o.logger.Debug("navigated", "from", from, "to", target, "direction", res.Direction, "elapsed", elapsed)
	o.emit(ctx, o.hooks.OnComplete, domain.EventNavigationComplete, res, elapsed)
	return res, nil
}

// Follow handles activation of a link. In-app pages are navigated in place,
// in-page anchors are left alone and anything else gets a full navigation.
func (o *Orchestrator) Follow(ctx context.Context, href string) (Result, error) {
	if isAnchor(href) {
		o.logger.Debug("in-page anchor", "href", href)
		return Result{Outcome: OutcomeIgnored, From: o.Current(), To: o.Current(), URL: href}, nil
	}
	id, ok := o.resolveHref(href)
	if !ok {
		o.logger.Debug("external link", "href", href)
		o.browser.Assign(href)
		return Result{Outcome: OutcomeExternal, From: o.Current(), URL: href}, nil
	}
	return o.Navigate(ctx, id, href)
}

// Hover opportunistically preloads the page a link points to.
func (o *Orchestrator) Hover(ctx context.Context, href string) {
	if id, ok := o.resolveHref(href); ok {
		o.cache.Preload(ctx, id)
	}
}

// Back and Forward traverse the browser history; the restored page is shown
// without a transition.
func (o *Orchestrator) Back() {
	o.browser.Back()
}

func (o *Orchestrator) Forward() {
	o.browser.Forward()
}

func (o *Orchestrator) resolveHref(href string) (domain.PageID, bool) {
	return o.registry.ResolveHref(href)
}

func isAnchor(href string) bool {
	return strings.HasPrefix(strings.TrimSpace(href), "#")
}

// restore swaps content for a history pop. Restores are never animated.
func (o *Orchestrator) restore(id domain.PageID) {
	ctx := context.Background()
	res := Result{From: o.Current(), To: id, URL: o.browser.Location()}

	fragment, err := o.cache.Load(ctx, id)
	if err != nil {
		o.logger.Warn("restore failed, falling back to full navigation", "page", id, "url", res.URL, "err", err)
		o.browser.Assign(res.URL)
		o.setCurrent(id)
		res.Outcome = OutcomeFallback
		res.Err = err
		o.emit(ctx, o.hooks.OnFallback, domain.EventNavigationFallback, res, 0)
		return
	}

	o.renderer.SetContent(fragment)
	o.setCurrent(id)
	o.history.SyncTitle(id)

	res.Outcome = OutcomeRestored
	o.logger.Debug("restored from history", "page", id)
	o.emit(ctx, o.hooks.OnRestore, domain.EventHistoryRestore, res, 0)
}

func (o *Orchestrator) emit(ctx context.Context, hook func(context.Context, *domain.NavigationEvent), typ domain.EventType, res Result, elapsed time.Duration) {
	if hook == nil {
		return
	}
	ev := &domain.NavigationEvent{
		Timestamp: time.Now(),
		Type:      typ,
		From:      res.From,
		To:        res.To,
		Direction: res.Direction,
		URL:       res.URL,
		Duration:  elapsed,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	hook(ctx, ev)
}
