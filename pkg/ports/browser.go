package ports

import "github.com/aretw0/pageflow/pkg/domain"

// PopHandler is invoked with the entry that became active after a back/forward action.
type PopHandler func(entry domain.HistoryEntry)

// Browser exposes the navigation primitives of the hosting browser.
type Browser interface {
	// Location returns the URL of the active history entry.
	Location() string

	// PushState appends an entry after the active one, discarding any forward entries.
	PushState(entry domain.HistoryEntry)

	// ReplaceState overwrites the active entry.
	ReplaceState(entry domain.HistoryEntry)

	Title() string
	SetTitle(title string)

	// Assign performs a full-page navigation to url.
	Assign(url string)

	// Back and Forward traverse the session history, notifying pop handlers.
	Back()
	Forward()

	// OnPopState registers a handler for history traversal.
	OnPopState(fn PopHandler)
}
