package ports

import "github.com/aretw0/pageflow/pkg/domain"

// Renderer is the presentation surface. It holds no state beyond what is visible.
type Renderer interface {
	// SetContent replaces the visible content region.
	SetContent(html string)

	// ShowOverlay presents the transition overlay sliding in the given direction.
	ShowOverlay(direction domain.Direction)

	// HideOverlay dismisses the transition overlay.
	HideOverlay()
}
