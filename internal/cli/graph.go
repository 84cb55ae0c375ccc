package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/pageflow/internal/presentation/graph"
	"github.com/aretw0/pageflow/pkg/ports"
)

// RunGraph prints the site map as a Mermaid flowchart. When store and sessionID are
// set, the pages visited by that session are highlighted.
func RunGraph(ctx context.Context, app *App, out io.Writer, store ports.SnapshotStore, sessionID string) error {
	var overlay *graph.GraphOverlay
	if store != nil && sessionID != "" {
		snap, err := store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		overlay = graph.OverlayFromSnapshot(snap)
	}

	m := graph.Build(ctx, app.Registry, app.Fetcher)
	for id, err := range m.Broken {
		app.Logger.Warn("page unreachable", "page", id, "err", err)
	}
	_, err := fmt.Fprint(out, graph.GenerateMermaid(m, overlay))
	return err
}
