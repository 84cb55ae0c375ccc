// Package cli implements the pageflow commands on top of the library packages.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/pageflow/internal/config"
	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/fetch"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/transition"
)

// Options are the flags shared by every command.
type Options struct {
	// Dir is the site directory holding the page documents.
	Dir string
	// ConfigPath defaults to pageflow.yaml inside Dir.
	ConfigPath string
	LogLevel   string
	// Preset overrides the manifest's transition preset.
	Preset string
}

// App is the environment resolved from Options.
type App struct {
	Dir       string
	Site      *config.Site
	Registry  *registry.Registry
	Preset    transition.Preset
	Fetcher   ports.Fetcher
	Extractor ports.Extractor
	Logger    *slog.Logger
}

// Setup loads the site manifest and builds the shared components. Logs go to logOut.
func Setup(opts Options, logOut io.Writer) (*App, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(logOut, level)

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path := opts.ConfigPath
	if path == "" {
		path = filepath.Join(dir, config.DefaultFile)
	}

	site, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Preset != "" {
		site.Preset = opts.Preset
		site.Timings = nil
	}

	reg, err := site.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid pages: %w", err)
	}
	preset, err := site.Transition()
	if err != nil {
		return nil, err
	}
	fetcher, err := createFetcher(site, dir)
	if err != nil {
		return nil, err
	}
	extractor, err := site.Extractor()
	if err != nil {
		return nil, err
	}

	logger.Debug("site loaded", "dir", dir, "config", path, "pages", len(reg.Pages()), "preset", preset.Name)
	return &App{
		Dir:       dir,
		Site:      site,
		Registry:  reg,
		Preset:    preset,
		Fetcher:   fetcher,
		Extractor: extractor,
		Logger:    logger,
	}, nil
}

// createFetcher reads documents from the live site when base_url is set and
// from the site directory otherwise.
func createFetcher(site *config.Site, dir string) (ports.Fetcher, error) {
	if site.BaseURL != "" {
		f, err := fetch.NewHTTPFetcher(site.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base_url: %w", err)
		}
		return f, nil
	}
	f, err := fetch.NewDirFetcherFromPath(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid site directory: %w", err)
	}
	return f, nil
}

// NewCache builds a fragment cache over the app's fetcher. observer may be nil.
func (a *App) NewCache(observer cache.Observer) *cache.Cache {
	opts := []cache.Option{
		cache.WithFetchTimeout(a.Site.FetchTimeout),
		cache.WithLogger(a.Logger),
	}
	if observer != nil {
		opts = append(opts, cache.WithObserver(observer))
	}
	return cache.New(a.Registry, a.Fetcher, a.Extractor, opts...)
}
