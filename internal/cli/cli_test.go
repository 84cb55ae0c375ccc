package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/internal/testutils"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// siteDir writes the default four-page site to a temporary directory.
func siteDir(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	for location, doc := range testutils.SiteDocs() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, location), []byte(doc), 0o644))
	}
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pageflow.yaml"), []byte(manifest), 0o644))
	}
	return dir
}

func setup(t *testing.T, dir string) *cli.App {
	t.Helper()
	app, err := cli.Setup(cli.Options{Dir: dir, LogLevel: "error"}, &bytes.Buffer{})
	require.NoError(t, err)
	return app
}

func TestSetup(t *testing.T) {
	dir := siteDir(t, "preset: simple\npreload: false\n")

	app := setup(t, dir)
	assert.Equal(t, "simple", app.Preset.Name)
	assert.False(t, app.Site.PreloadEnabled())
	assert.Len(t, app.Registry.Pages(), 4)

	override, err := cli.Setup(cli.Options{Dir: dir, Preset: "none"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "none", override.Preset.Name)
	assert.Zero(t, override.Preset.Timings.Enter)
}

func TestSetup_Errors(t *testing.T) {
	dir := siteDir(t, "")

	_, err := cli.Setup(cli.Options{Dir: dir, LogLevel: "loud"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown log level")

	_, err = cli.Setup(cli.Options{Dir: dir, Preset: "wobble"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown transition preset")

	_, err = cli.Setup(cli.Options{Dir: filepath.Join(dir, "missing")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid site directory")

	_, err = cli.Setup(cli.Options{Dir: siteDir(t, "base_url: not a url\n")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid base_url")
}

func TestRunPreload(t *testing.T) {
	dir := siteDir(t, "")
	app := setup(t, dir)

	var out bytes.Buffer
	require.NoError(t, cli.RunPreload(context.Background(), app, &out))
	assert.Equal(t, 4, strings.Count(out.String(), "ok "))

	require.NoError(t, os.Remove(filepath.Join(dir, "cv.html")))
	out.Reset()
	err := cli.RunPreload(context.Background(), setup(t, dir), &out)
	assert.ErrorContains(t, err, "1 of 4 pages failed")
	assert.Contains(t, out.String(), "FAIL cv")
}

func TestRunBrowse_Headless(t *testing.T) {
	app := setup(t, siteDir(t, "preset: none\npreload: false\n"))

	in := strings.NewReader("go contact\nback\npages\nquit\n")
	var out bytes.Buffer
	require.NoError(t, cli.RunBrowse(context.Background(), app, cli.BrowseOptions{Headless: true}, in, &out))

	text := out.String()
	assert.Contains(t, text, "content of home")
	assert.Contains(t, text, "home -> contact (forward)")
	assert.Contains(t, text, "content of contact")
	assert.Contains(t, text, "now at home")
	assert.Contains(t, text, "* home")
	assert.NotContains(t, text, "<h1>")
}

func TestBuildServer(t *testing.T) {
	app := setup(t, siteDir(t, "preload: false\n"))
	server, cleanup, err := cli.BuildServer(app, cli.ServeOptions{})
	require.NoError(t, err)
	defer cleanup()

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view struct {
		Session struct {
			SessionID   string        `json:"session_id"`
			CurrentPage domain.PageID `json:"current_page"`
		} `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, domain.PageHome, view.Session.CurrentPage)

	static, err := http.Get(ts.URL + "/blog.html")
	require.NoError(t, err)
	static.Body.Close()
	assert.Equal(t, http.StatusOK, static.StatusCode)

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "pageflow_cache_lookups_total")
	assert.Contains(t, body.String(), "go_goroutines")
}

func TestBuildServer_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	app := setup(t, siteDir(t, "preload: false\n"))

	server, cleanup, err := cli.BuildServer(app, cli.ServeOptions{RedisAddr: mr.Addr(), SessionTTL: time.Minute})
	require.NoError(t, err)
	defer cleanup()

	view, err := server.Sessions.Start(context.Background(), "cv.html")
	require.NoError(t, err)
	assert.Equal(t, domain.PageCV, view.Session.CurrentPage)

	ids, err := server.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{view.Session.SessionID}, ids)
	assert.Greater(t, mr.TTL("pageflow:session:"+view.Session.SessionID), time.Duration(0))
}

func TestRunServe_Shutdown(t *testing.T) {
	app := setup(t, siteDir(t, "preload: false\n"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- cli.RunServe(ctx, app, cli.ServeOptions{Port: "0"}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	app := setup(t, siteDir(t, ""))
	err := cli.RunMCP(context.Background(), app, "carrier-pigeon", 0)
	assert.ErrorContains(t, err, "unknown transport")
}

func TestRunGraph(t *testing.T) {
	app := setup(t, siteDir(t, ""))
	store := memory.NewStore()
	snap := domain.NewSnapshot("s1", "index.html")
	snap.CurrentPage = domain.PageHome
	require.NoError(t, store.Save(context.Background(), "s1", snap))

	var out bytes.Buffer
	require.NoError(t, cli.RunGraph(context.Background(), app, &out, store, "s1"))
	assert.Contains(t, out.String(), "graph LR")
	assert.Contains(t, out.String(), "cv --> home")
	assert.Contains(t, out.String(), "class home current;")

	err := cli.RunGraph(context.Background(), app, &out, store, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestBuildServer_ProtectedStore(t *testing.T) {
	app := setup(t, siteDir(t, "preload: false\n"))

	_, _, err := cli.BuildServer(app, cli.ServeOptions{SessionKey: []byte("short")})
	assert.ErrorContains(t, err, "invalid session key")

	_, _, err = cli.BuildServer(app, cli.ServeOptions{Redact: []string{"("}})
	assert.Error(t, err)

	server, cleanup, err := cli.BuildServer(app, cli.ServeOptions{
		SessionKey: bytes.Repeat([]byte{7}, 32),
		Redact:     []string{"token"},
	})
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	view, err := server.Sessions.Start(ctx, "blog.html?token=secret")
	require.NoError(t, err)

	again, err := server.Sessions.Get(ctx, view.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageBlog, again.Session.CurrentPage)
	assert.NotContains(t, again.Session.Location(), "secret")
}
