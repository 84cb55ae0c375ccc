package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/registry"
)

// Fetcher is an in-memory ports.Fetcher that counts calls per location.
// Setting Gate makes every Fetch block until the gate is closed or the context ends.
type Fetcher struct {
	mu     sync.Mutex
	docs   map[string]string
	errs   map[string]error
	calls  map[string]int
	gate   chan struct{}
	onCall func(location string)
}

// NewFetcher creates a fetcher serving docs keyed by location.
func NewFetcher(docs map[string]string) *Fetcher {
	return &Fetcher{
		docs:  docs,
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// Fail makes every fetch of location return err.
func (f *Fetcher) Fail(location string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[location] = err
}

// Recover removes a failure installed with Fail.
func (f *Fetcher) Recover(location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, location)
}

// Block installs a gate and returns the function that opens it.
func (f *Fetcher) Block() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// OnCall registers a callback invoked at the start of every Fetch.
func (f *Fetcher) OnCall(fn func(location string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCall = fn
}

func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	f.calls[location]++
	gate, onCall := f.gate, f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(location)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[location]; ok {
		return nil, err
	}
	doc, ok := f.docs[location]
	if !ok {
		return nil, fmt.Errorf("404 not found: %s", location)
	}
	return []byte(doc), nil
}

// Calls returns how many times location was fetched.
func (f *Fetcher) Calls(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[location]
}

// TotalCalls returns the number of fetches across all locations.
func (f *Fetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Document wraps a content fragment in a full page with navigation chrome.
func Document(title, fragment string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>")
	b.WriteString(title)
	b.WriteString("</title></head><body><nav><a href=\"index.html\">Home</a><a href=\"blog.html\">Blog</a></nav><main>")
	b.WriteString(fragment)
	b.WriteString("</main><footer>footer</footer></body></html>")
	return b.String()
}

// Fragment returns the content fragment SiteDocs serves for id.
func Fragment(id domain.PageID) string {
	return "<h1>" + string(id) + "</h1><p>content of " + string(id) + "</p>"
}

// SiteDocs returns full documents for every page of the default registry.
func SiteDocs() map[string]string {
	docs := make(map[string]string)
	for _, p := range registry.Default().Pages() {
		docs[p.Location] = Document(p.Title, Fragment(p.ID))
	}
	return docs
}

// MainExtractor is a minimal extractor returning the text between <main> and </main>.
func MainExtractor(document []byte) (string, bool) {
	doc := string(document)
	start := strings.Index(doc, "<main>")
	end := strings.Index(doc, "</main>")
	if start < 0 || end < start {
		return "", false
	}
	return doc[start+len("<main>") : end], true
}
