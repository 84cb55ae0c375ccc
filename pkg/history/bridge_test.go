package history_test

import (
	"testing"

	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/history"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNavigation(t *testing.T) {
	browser := memory.NewBrowser("index.html")
	bridge := history.New(browser, registry.Default())

	bridge.RecordNavigation(domain.PageContact, "contact.html")

	entries, index := browser.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, index)
	assert.Equal(t, domain.HistoryEntry{PageID: domain.PageContact, URL: "contact.html"}, entries[1])
	assert.Equal(t, "Liên hệ — Huỳnh Tấn Đạt", browser.Title())
}

func TestSyncTitle_UnknownPageKeepsTitle(t *testing.T) {
	browser := memory.NewBrowser("index.html")
	browser.SetTitle("Original")
	bridge := history.New(browser, registry.Default())

	bridge.SyncTitle("about")
	assert.Equal(t, "Original", browser.Title())
}

func TestOnPop_UsesEntryOrLocation(t *testing.T) {
	browser := memory.NewBrowser("/site/cv.html")
	bridge := history.New(browser, registry.Default())

	var got []domain.PageID
	bridge.OnPop(func(id domain.PageID) { got = append(got, id) })

	bridge.RecordNavigation(domain.PageBlog, "/site/blog.html")
	bridge.RecordNavigation(domain.PageHome, "/site/index.html")

	browser.Back() // tagged entry
	browser.Back() // first load: no tag, identified from location

	assert.Equal(t, []domain.PageID{domain.PageBlog, domain.PageCV}, got)
}

func TestSeed(t *testing.T) {
	browser := memory.NewBrowser("cv.html")
	bridge := history.New(browser, registry.Default())

	bridge.Seed(domain.PageCV)

	entries, _ := browser.Entries()
	assert.Equal(t, []domain.HistoryEntry{{PageID: domain.PageCV, URL: "cv.html"}}, entries)
}
