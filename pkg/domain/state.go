package domain

import "time"

// HistoryEntry is pushed onto the browser session history for every in-app navigation.
// PageID is empty for entries that predate the engine (e.g. the document's first load)
// or that were created by a full navigation.
type HistoryEntry struct {
	PageID PageID `json:"page,omitempty"`
	URL    string `json:"url"`
}

// Snapshot is the serialisable state of a headless navigation session.
type Snapshot struct {
	SessionID string `json:"session_id"`

	// CurrentPage is the page whose content is visible.
	CurrentPage PageID `json:"current_page"`

	// Entries is the session history stack; Index points at the active entry.
	Entries []HistoryEntry `json:"entries"`
	Index   int            `json:"index"`

	// Title is the document title.
	Title string `json:"title"`

	// Assigned lists URLs the session was sent to with a full navigation.
	Assigned []string `json:"assigned,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted snapshot when a store encrypts at rest. A sealed
	// snapshot has no other state besides SessionID and UpdatedAt.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSnapshot creates a session whose history holds a single untagged entry at location.
func NewSnapshot(sessionID, location string) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Entries:   []HistoryEntry{{URL: location}},
		UpdatedAt: time.Now(),
	}
}

// Location returns the URL of the active history entry.
func (s *Snapshot) Location() string {
	if s.Index < 0 || s.Index >= len(s.Entries) {
		return ""
	}
	return s.Entries[s.Index].URL
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Entries = append([]HistoryEntry(nil), s.Entries...)
	c.Assigned = append([]string(nil), s.Assigned...)
	c.Sealed = append([]byte(nil), s.Sealed...)
	return &c
}
