/*
Package ports defines the driven ports (interfaces) of the pageflow engine.

These interfaces decouple the navigation core from the browser, the network and
session storage, so the same orchestrator runs against a real page, an in-memory
browser in tests, a terminal, or a server-held session.

# Key Interfaces

  - Renderer: Presents content and the transition overlay.
  - Browser: Location, session history, document title and full navigation.
  - Fetcher / Extractor: Retrieve a page document and pull its content region out.
  - SnapshotStore: Persists headless session snapshots.
  - DistributedLocker: Coordinates session access across replicas.
*/
package ports
