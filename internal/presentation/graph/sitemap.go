// Package graph maps the links between the pages of a site and renders them as a
// Mermaid flowchart.
package graph

import (
	"context"

	"github.com/aretw0/pageflow/pkg/adapters/html"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// Edge is a link from one page to another that stays inside the app.
type Edge struct {
	From domain.PageID
	To   domain.PageID
}

// SiteMap is the link structure of a site.
type SiteMap struct {
	Landing domain.PageID
	Pages   []domain.PageDescriptor
	Edges   []Edge
	// External lists, per page, the links that leave the app with a full navigation.
	External map[domain.PageID][]string
	// Broken holds the pages whose document could not be fetched.
	Broken map[domain.PageID]error
}

const maxConcurrentFetches = 4

// Build fetches every page document and classifies its links.
func Build(ctx context.Context, reg *registry.Registry, fetcher ports.Fetcher) SiteMap {
	pages := reg.Pages()
	links := make([][]string, len(pages))
	errs := make([]error, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, page := range pages {
		g.Go(func() error {
			doc, err := fetcher.Fetch(gctx, page.Location)
			if err != nil {
				errs[i] = err
				return nil
			}
			links[i] = html.Links(doc)
			return nil
		})
	}
	_ = g.Wait()

	m := SiteMap{
		Landing:  reg.Landing(),
		Pages:    pages,
		External: make(map[domain.PageID][]string),
		Broken:   make(map[domain.PageID]error),
	}
	seen := make(map[Edge]bool)
	for i, page := range pages {
		if errs[i] != nil {
			m.Broken[page.ID] = errs[i]
			continue
		}
		for _, href := range links[i] {
			if isAnchor(href) {
				continue
			}
			to, ok := reg.ResolveHref(href)
			if !ok {
				m.External[page.ID] = appendUnique(m.External[page.ID], href)
				continue
			}
			e := Edge{From: page.ID, To: to}
			if to != page.ID && !seen[e] {
				seen[e] = true
				m.Edges = append(m.Edges, e)
			}
		}
	}
	return m
}

func isAnchor(href string) bool {
	return len(href) > 0 && href[0] == '#'
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
