// Package transition implements the Idle/Transitioning state machine that owns the
// transition overlay and is the single admission gate for navigations.
package transition

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"go.uber.org/atomic"
)

// Controller drives Idle --Begin--> Transitioning --Complete--> Idle.
// Safe for concurrent use; Begin never queues.
type Controller struct {
	renderer ports.Renderer
	timings  Timings
	logger   *slog.Logger

	active atomic.Bool

	mu        sync.RWMutex
	direction domain.Direction
	startedAt time.Time
}

// Option configures the Controller.
type Option func(*Controller)

// WithTimings sets the enter and exit phase durations.
func WithTimings(t Timings) Option {
	return func(c *Controller) {
		c.timings = t
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates an idle controller presenting its overlay on renderer.
func New(renderer ports.Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer: renderer,
		timings:  Presets[DefaultPreset].Timings,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a transition in direction. It returns false, without side effects,
// when a transition is already in progress. Otherwise it presents the overlay and
// returns once the enter phase has elapsed or ctx is done.
func (c *Controller) Begin(ctx context.Context, direction domain.Direction) bool {
	c.mu.Lock()
	if !c.active.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return false
	}
	c.direction = direction
	c.startedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("transition begin", "direction", direction)
	c.renderer.ShowOverlay(direction)
	wait(ctx, c.timings.Enter)
	return true
}

// Complete dismisses the overlay, waits for the exit phase and returns to Idle.
// It returns how long the transition lasted. Calling it while Idle is a
// programming error and panics with domain.ErrNotTransitioning.
func (c *Controller) Complete(ctx context.Context) time.Duration {
	if !c.active.Load() {
		panic(domain.ErrNotTransitioning)
	}

	c.renderer.HideOverlay()
	wait(ctx, c.timings.Exit)

	c.mu.Lock()
	elapsed := time.Since(c.startedAt)
	c.direction = ""
	c.active.Store(false)
	c.mu.Unlock()

	c.logger.Debug("transition complete", "elapsed", elapsed)
	return elapsed
}

// Idle reports whether a transition may begin.
func (c *Controller) Idle() bool {
	return !c.active.Load()
}

// State returns the current state of the machine.
// Phase and direction are read under the same lock that Begin and Complete hold
// while changing them.
func (c *Controller) State() domain.TransitionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active.Load() {
		return domain.TransitionState{Phase: domain.PhaseIdle}
	}
	return domain.TransitionState{Phase: domain.PhaseTransitioning, Direction: c.direction}
}

// Timings returns the configured phase durations.
func (c *Controller) Timings() Timings {
	return c.timings
}

// Direction returns forward when the target comes after the current page in
// navigation order, backward otherwise.
func Direction(currentIndex, targetIndex int) domain.Direction {
	if targetIndex > currentIndex {
		return domain.DirectionForward
	}
	return domain.DirectionBackward
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
