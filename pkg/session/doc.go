/*
Package session runs headless navigation sessions.

A session is a simulated browsing context (history stack, title, visible page) kept
in a SnapshotStore. Every operation rebuilds the navigation engine over an in-memory
browser from the stored snapshot, applies one intent, and persists the resulting
snapshot. Operations on the same session are serialised with a ref-counted local
mutex and, optionally, a distributed lock so that several replicas can share a store.
*/
package session
