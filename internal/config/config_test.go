package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/pageflow/internal/config"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	site, err := config.Load(filepath.Join(t.TempDir(), config.DefaultFile))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), site)
	assert.True(t, site.PreloadEnabled())

	reg, err := site.Registry()
	require.NoError(t, err)
	assert.Len(t, reg.Pages(), 4)

	preset, err := site.Transition()
	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, preset.Timings.Enter)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, config.DefaultFile, `
pages:
  - id: start
    location: index.html
    title: Start
  - id: about
    location: about.html
    title: About
preset: motion
timings:
  enter: 150ms
  exit: 50
fetch_timeout: 3s
content: "div#app"
preload: false
`)
	site, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, site.FetchTimeout)
	assert.False(t, site.PreloadEnabled())

	reg, err := site.Registry()
	require.NoError(t, err)
	assert.Equal(t, domain.PageID("start"), reg.Landing())
	assert.Equal(t, domain.PageID("about"), reg.IdentifyFromLocation("/site/about.html"))

	preset, err := site.Transition()
	require.NoError(t, err)
	assert.Equal(t, "motion", preset.Name)
	assert.Equal(t, transition.Timings{Enter: 150 * time.Millisecond, Exit: 50 * time.Millisecond}, preset.Timings)

	extractor, err := site.Extractor()
	require.NoError(t, err)
	fragment, ok := extractor.Extract([]byte(`<main>chrome</main><div id="app"><p>x</p></div>`))
	require.True(t, ok)
	assert.Equal(t, "<p>x</p>", fragment)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "pageflow.json", `{"preset": "instant", "fetch_timeout": "1s"}`)
	site, err := config.Load(path)
	require.NoError(t, err)

	preset, err := site.Transition()
	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, preset.Timings.Exit)
	assert.Equal(t, time.Second, site.FetchTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "pages: [\n"},
		{"unknown key", "colour: blue\n"},
		{"bad duration", "fetch_timeout: soon\n"},
		{"zero timeout", "fetch_timeout: 0s\n"},
		{"bad selector", "content: \"main[\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(write(t, config.DefaultFile, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSite_InvalidPagesAndPreset(t *testing.T) {
	site, err := config.Decode(map[string]any{
		"preset": "wobble",
		"pages": []any{
			map[string]any{"id": "a", "location": "a.html"},
			map[string]any{"id": "b", "location": "a.html"},
		},
	})
	require.NoError(t, err)

	_, err = site.Registry()
	assert.Error(t, err)

	_, err = site.Transition()
	assert.ErrorContains(t, err, "unknown transition preset")
}
