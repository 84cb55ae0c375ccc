/*
Package pageflow turns a static multi-page site into a single-page experience.

Links between the site's pages are intercepted: instead of a full page load, the
target page's content fragment is fetched (or taken from a cache), swapped into the
current document under an animated overlay, and recorded in the browser's session
history so that back and forward keep working.

# Concept

The engine is built from five collaborators, each usable on its own:

  - registry: the fixed table of pages (id, location, title) and their order.
  - cache: fragments by page id, with de-duplicated concurrent loads and bounded fetches.
  - transition: the Idle/Transitioning state machine that owns the overlay and admits
    at most one navigation at a time.
  - history: pushes entries, keeps the document title in sync and restores on pop.
  - navigation: the orchestrator that sequences the others and falls back to a full
    navigation when a fragment cannot be loaded.

The browser, the rendering surface and the network are ports. Adapters exist for an
in-memory browser (tests and headless sessions), a terminal, an HTTP session service
and an MCP tool server.

# Usage

	site, err := pageflow.New(browser, renderer, fetch.NewHTTPFetcher("https://example.com/"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := site.Start(ctx); err != nil {
		log.Printf("initial content unavailable: %v", err)
	}

	// Link activation
	res, err := site.Follow(ctx, "blog.html")
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s -> %s: %s", res.From, res.To, res.Outcome)
*/
package pageflow
