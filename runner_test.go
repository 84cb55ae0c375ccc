package pageflow_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/testutils"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Commands(t *testing.T) {
	browser := memory.NewBrowser("index.html")
	renderer := memory.NewRenderer("")
	fetcher := testutils.NewFetcher(testutils.SiteDocs())
	site := newSite(t, browser, renderer, fetcher)

	input := strings.Join([]string{
		"pages",
		"go blog",
		"hover contact.html",
		"go cv.html",
		"back",
		"go https://example.com",
		"bogus",
		"quit",
		"go contact", // never reached
	}, "\n") + "\n"

	var out bytes.Buffer
	runner := pageflow.NewRunner(strings.NewReader(input), &out)
	runner.Headless = true
	require.NoError(t, runner.Run(context.Background(), site))

	text := out.String()
	assert.Contains(t, text, "* home")
	assert.Contains(t, text, "home -> blog (forward)")
	assert.Contains(t, text, "blog -> cv (forward)")
	assert.Contains(t, text, "now at blog")
	assert.Contains(t, text, "leaving site: https://example.com")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.NotContains(t, text, "Bye!")

	assert.Equal(t, domain.PageBlog, site.Current())
	assert.Equal(t, 1, fetcher.Calls("contact.html"), "hover preloaded, quit stopped before navigation")
}

func TestRunner_StopsAtEOF(t *testing.T) {
	site := newSite(t, memory.NewBrowser("index.html"), memory.NewRenderer(""), testutils.NewFetcher(testutils.SiteDocs()))

	var out bytes.Buffer
	runner := pageflow.NewRunner(strings.NewReader("go contact"), &out)
	require.NoError(t, runner.Run(context.Background(), site))

	assert.Equal(t, domain.PageContact, site.Current())
	assert.Contains(t, out.String(), "[home] > ")
}

func TestRunner_RequiresIO(t *testing.T) {
	site := newSite(t, memory.NewBrowser("index.html"), memory.NewRenderer(""), testutils.NewFetcher(testutils.SiteDocs()))
	err := (&pageflow.Runner{}).Run(context.Background(), site)
	assert.Error(t, err)
}
