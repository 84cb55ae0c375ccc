package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Fetcher implements ports.Fetcher using an in-memory map of documents keyed by location.
type Fetcher struct {
	docs map[string][]byte
}

// NewFetcher creates a Fetcher with the provided documents.
func NewFetcher(docs map[string]string) *Fetcher {
	m := make(map[string][]byte, len(docs))
	for k, v := range docs {
		m[key(k)] = []byte(v)
	}
	return &Fetcher{docs: m}
}

// Fetch returns the document stored at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := f.docs[key(location)]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", location)
	}
	return doc, nil
}

// Locations returns the stored locations, sorted.
func (f *Fetcher) Locations() []string {
	out := make([]string, 0, len(f.docs))
	for k := range f.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func key(location string) string {
	return strings.TrimLeft(strings.TrimPrefix(location, "./"), "/")
}
