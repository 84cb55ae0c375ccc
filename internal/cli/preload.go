package cli

import (
	"context"
	"fmt"
	"io"
)

// RunPreload fetches every page once and reports the ones that cannot be loaded.
// It fails when at least one page failed.
func RunPreload(ctx context.Context, app *App, out io.Writer) error {
	c := app.NewCache(nil)
	report := c.PreloadAll(ctx)

	for _, page := range app.Registry.Pages() {
		if err, failed := report.Failed[page.ID]; failed {
			fmt.Fprintf(out, "FAIL %-10s %s: %v\n", page.ID, page.Location, err)
			continue
		}
		fmt.Fprintf(out, "ok   %-10s %s\n", page.ID, page.Location)
	}

	if n := len(report.Failed); n > 0 {
		return fmt.Errorf("%d of %d pages failed to load", n, len(app.Registry.Pages()))
	}
	return nil
}
