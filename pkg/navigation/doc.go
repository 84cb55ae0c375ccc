/*
Package navigation implements the orchestrator that turns navigation intents into
in-place page swaps.

A navigation runs through a fixed sequence: the transition gate is acquired, the
target fragment is loaded (from cache or network), the content is swapped, the
current page is updated, the history entry and title are recorded, and the gate is
released. Content is never swapped before the overlay is up, and history is never
updated before the swap succeeded. When a fragment cannot be loaded, the
orchestrator falls back to a full browser navigation so the user still reaches the
page.

Intents arriving while a transition is in flight are dropped, not queued.
*/
package navigation
