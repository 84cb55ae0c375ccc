package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/presentation/tui"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/observability"
	"github.com/muesli/termenv"
)

// BrowseOptions configure the interactive terminal browser.
type BrowseOptions struct {
	// Start is the location the browser opens (default: the landing page).
	Start    string
	Headless bool
}

// RunBrowse browses the site in the terminal, reading commands from in.
func RunBrowse(ctx context.Context, app *App, bopts BrowseOptions, in io.Reader, out io.Writer) error {
	start := bopts.Start
	if start == "" {
		landing, _ := app.Registry.Lookup(app.Registry.Landing())
		start = landing.Location
	}

	rendererOpts := []tui.Option{tui.WithStyle(app.Preset.Style), tui.WithLogger(app.Logger)}
	if bopts.Headless {
		rendererOpts = append(rendererOpts, tui.WithProfile(termenv.Ascii))
	}
	renderer, err := tui.NewRenderer(out, rendererOpts...)
	if err != nil {
		return err
	}

	site, err := pageflow.New(memory.NewBrowser(start), renderer, nil,
		pageflow.WithRegistry(app.Registry),
		pageflow.WithCache(app.NewCache(nil)),
		pageflow.WithTimings(app.Preset.Timings),
		pageflow.WithLifecycleHooks(observability.LoggingHooks(app.Logger)),
		pageflow.WithPreload(app.Site.PreloadEnabled()),
		pageflow.WithLogger(app.Logger),
	)
	if err != nil {
		return fmt.Errorf("error initializing site: %w", err)
	}

	if !bopts.Headless {
		tui.PrintBanner(out, termenv.ColorProfile())
	}

	runner := pageflow.NewRunner(in, out)
	runner.Headless = bopts.Headless
	return runner.Run(ctx, site)
}
