package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrLoadTimeout is the cause of a FragmentLoadError when the fetch exceeded its deadline.
var ErrLoadTimeout = errors.New("fragment load timed out")

// ErrMissingContent is the cause of a FragmentLoadError when the fetched document has no content region.
var ErrMissingContent = errors.New("document has no content region")

// ErrNotTransitioning is raised when a transition is completed while the controller is idle.
var ErrNotTransitioning = errors.New("transition completed while idle")

// UnknownPageError reports a page ID outside the registry. It indicates a programming error.
type UnknownPageError struct {
	ID PageID
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("unknown page %q", e.ID)
}

// FragmentLoadError reports that a page's content fragment could not be fetched or extracted.
type FragmentLoadError struct {
	PageID PageID
	Cause  error
}

func (e *FragmentLoadError) Error() string {
	return fmt.Sprintf("failed to load fragment for page %q: %v", e.PageID, e.Cause)
}

func (e *FragmentLoadError) Unwrap() error {
	return e.Cause
}
