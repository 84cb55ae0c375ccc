// Package config loads the site manifest (pageflow.yaml) that describes the pages
// of a site and how navigating between them is presented.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/pageflow/pkg/adapters/html"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/transition"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest looked up in the site directory.
const DefaultFile = "pageflow.yaml"

// DefaultFetchTimeout bounds a single fragment fetch.
const DefaultFetchTimeout = 10 * time.Second

// Site is the decoded manifest.
type Site struct {
	// Pages in navigation order. Empty means the default four-page site.
	Pages []domain.PageDescriptor `mapstructure:"pages"`

	// Preset names a transition variant; Timings overrides its durations.
	Preset  string              `mapstructure:"preset"`
	Timings *transition.Timings `mapstructure:"timings"`

	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Content selects the content region of each document: "main", "#app" or "div#app".
	Content string `mapstructure:"content"`

	Preload *bool `mapstructure:"preload"`

	// BaseURL fetches documents from a live site instead of the site directory.
	BaseURL string `mapstructure:"base_url"`
}

// Default returns the manifest used when none is present.
func Default() *Site {
	return &Site{
		Preset:       transition.DefaultPreset,
		FetchTimeout: DefaultFetchTimeout,
		Content:      "main",
	}
}

// Load reads the manifest at path (YAML, or JSON by extension).
// A missing file yields the defaults.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return Decode(raw)
}

// Decode applies a generic map on top of the defaults.
func Decode(raw map[string]any) (*Site, error) {
	site := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			millisecondsHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           site,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid site config: %w", err)
	}
	if site.FetchTimeout <= 0 {
		return nil, fmt.Errorf("invalid site config: fetch_timeout must be positive")
	}
	if _, err := site.Extractor(); err != nil {
		return nil, fmt.Errorf("invalid site config: %w", err)
	}
	return site, nil
}

// millisecondsHook reads bare numbers as milliseconds, the unit CSS animation
// timings are usually written in.
func millisecondsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	}
	return data, nil
}

// Registry builds the page registry.
func (s *Site) Registry() (*registry.Registry, error) {
	if len(s.Pages) == 0 {
		return registry.Default(), nil
	}
	return registry.New(s.Pages...)
}

// Transition resolves the preset and applies the explicit timings, if any.
func (s *Site) Transition() (transition.Preset, error) {
	name := s.Preset
	if name == "" {
		name = transition.DefaultPreset
	}
	preset, err := transition.Lookup(name)
	if err != nil {
		return transition.Preset{}, err
	}
	if s.Timings != nil {
		preset.Timings = *s.Timings
	}
	return preset, nil
}

// Extractor returns an extractor for the content region selector.
func (s *Site) Extractor() (*html.MainExtractor, error) {
	if s.Content == "" {
		return html.NewMainExtractor(), nil
	}
	return html.FromSelector(s.Content)
}

// PreloadEnabled reports whether pages are preloaded after the initial load.
func (s *Site) PreloadEnabled() bool {
	return s.Preload == nil || *s.Preload
}
