/*
Package domain contains the core domain models of the pageflow navigation engine.

It defines the pages of a site, the transition state machine vocabulary, the history
entries kept in the browser session, and the serialisable snapshot of a headless
navigation session. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - PageDescriptor: A page of the site (ID, resource location, display title).
  - TransitionState: Idle, or Transitioning in a Direction.
  - HistoryEntry: The unit pushed onto the browser's session history.
  - Snapshot: The persisted state of a headless session (current page + history stack).
  - NavigationEvent: Emitted to LifecycleHooks for observability.
*/
package domain
