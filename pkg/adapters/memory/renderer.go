package memory

import (
	"sync"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Call is one recorded Renderer invocation.
type Call struct {
	Op        string // "content", "show", "hide"
	HTML      string
	Direction domain.Direction
	// Overlay reports whether the overlay was visible when the call was made.
	Overlay bool
}

// Renderer implements ports.Renderer by recording what would be on screen.
type Renderer struct {
	mu      sync.Mutex
	content string
	overlay bool
	calls   []Call
}

// NewRenderer creates a renderer showing content.
func NewRenderer(content string) *Renderer {
	return &Renderer{content: content}
}

func (r *Renderer) SetContent(html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "content", HTML: html, Overlay: r.overlay})
	r.content = html
}

func (r *Renderer) ShowOverlay(direction domain.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "show", Direction: direction, Overlay: r.overlay})
	r.overlay = true
}

func (r *Renderer) HideOverlay() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "hide", Overlay: r.overlay})
	r.overlay = false
}

// Content returns the visible content.
func (r *Renderer) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content
}

// OverlayVisible reports whether the overlay is shown.
func (r *Renderer) OverlayVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay
}

// Calls returns the recorded invocations, oldest first.
func (r *Renderer) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op were recorded.
func (r *Renderer) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
