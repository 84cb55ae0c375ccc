// Package tui renders pages in a terminal: content fragments are converted to
// Markdown and rendered with glamour, and the transition overlay is a banner line.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/html"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/transition"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// Renderer draws the visible page on a terminal.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	style   transition.Style
	profile termenv.Profile
	glamour string
	md      *glamour.TermRenderer
	logger  *slog.Logger
	overlay bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle sets the overlay classes shown in the transition banner.
func WithStyle(style transition.Style) Option {
	return func(r *Renderer) {
		r.style = style
	}
}

// WithWidth overrides the detected terminal width.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		r.width = width
	}
}

// WithProfile overrides the detected color profile. termenv.Ascii disables colors
// and selects the plain glamour style.
func WithProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.profile = profile
		if profile == termenv.Ascii {
			r.glamour = "notty"
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		out:     out,
		width:   Width(out),
		profile: termenv.Ascii,
		glamour: "notty",
		logger:  logging.NewNop(),
	}
	if isTerminal(out) {
		r.profile = termenv.ColorProfile()
		r.glamour = ""
	}
	for _, opt := range opts {
		opt(r)
	}

	style := glamour.WithAutoStyle()
	if r.glamour != "" {
		style = glamour.WithStandardStyle(r.glamour)
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(r.width))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// SetContent renders a content fragment. Markup that cannot be converted is printed as is.
func (r *Renderer) SetContent(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.render(fragment)
	if err != nil {
		r.logger.Warn("could not render content, printing markup", "err", err)
		out = fragment + "\n"
	}
	fmt.Fprint(r.out, out)
}

func (r *Renderer) render(fragment string) (string, error) {
	md, err := html.ToMarkdown(fragment)
	if err != nil {
		return "", err
	}
	return r.md.Render(md)
}

// ShowOverlay prints the transition banner.
func (r *Renderer) ShowOverlay(direction domain.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	arrow := "<<"
	if direction == domain.DirectionForward {
		arrow = ">>"
	}
	line := fmt.Sprintf(" %s %s ", arrow, direction)
	if cls := r.style.Class(direction); cls != "" {
		line += "[" + cls + "] "
	}
	fmt.Fprintln(r.out, r.profile.String(line).Reverse().Foreground(r.profile.Color("#a78bfa")))
	r.overlay = true
}

// HideOverlay ends the transition.
func (r *Renderer) HideOverlay() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlay = false
}

// OverlayVisible reports whether a transition banner is showing.
func (r *Renderer) OverlayVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay
}

// Width returns the width of the terminal behind w, or DefaultWidth.
func Width(w io.Writer) int {
	if f, ok := w.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
