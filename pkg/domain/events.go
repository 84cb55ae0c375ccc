package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransitionBegin    EventType = "transition_begin"
	EventNavigationComplete EventType = "navigation_complete"
	EventNavigationRejected EventType = "navigation_rejected"
	EventNavigationFallback EventType = "navigation_fallback"
	EventHistoryRestore     EventType = "history_restore"
)

// NavigationEvent describes one step of a navigation.
type NavigationEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	From      PageID        `json:"from,omitempty"`
	To        PageID        `json:"to"`
	Direction Direction     `json:"direction,omitempty"`
	URL       string        `json:"url,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for navigation observability.
type LifecycleHooks struct {
	OnBegin    func(context.Context, *NavigationEvent)
	OnComplete func(context.Context, *NavigationEvent)
	OnRejected func(context.Context, *NavigationEvent)
	OnFallback func(context.Context, *NavigationEvent)
	OnRestore  func(context.Context, *NavigationEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnBegin:    chain(h.OnBegin, other.OnBegin),
		OnComplete: chain(h.OnComplete, other.OnComplete),
		OnRejected: chain(h.OnRejected, other.OnRejected),
		OnFallback: chain(h.OnFallback, other.OnFallback),
		OnRestore:  chain(h.OnRestore, other.OnRestore),
	}
}

func chain(a, b func(context.Context, *NavigationEvent)) func(context.Context, *NavigationEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev *NavigationEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
