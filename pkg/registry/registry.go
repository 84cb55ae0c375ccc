package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Registry is the static table of the site's pages, in navigation order.
// It is built once at startup and never mutated, so it is safe for concurrent use.
type Registry struct {
	pages []domain.PageDescriptor
	index map[domain.PageID]int
}

// New creates a registry from pages, in navigation order.
// The first page is the landing page. IDs and locations must be unique and non-empty.
func New(pages ...domain.PageDescriptor) (*Registry, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("registry requires at least one page")
	}

	r := &Registry{
		pages: make([]domain.PageDescriptor, 0, len(pages)),
		index: make(map[domain.PageID]int, len(pages)),
	}
	locations := make(map[string]domain.PageID, len(pages))

	for _, p := range pages {
		if p.ID == "" {
			return nil, fmt.Errorf("page with location %q has no id", p.Location)
		}
		if _, dup := r.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate page id %q", p.ID)
		}
		loc := normalize(p.Location)
		if loc == "" {
			return nil, fmt.Errorf("page %q has no location", p.ID)
		}
		if other, dup := locations[loc]; dup {
			return nil, fmt.Errorf("pages %q and %q share location %q", other, p.ID, p.Location)
		}
		locations[loc] = p.ID
		r.index[p.ID] = len(r.pages)
		r.pages = append(r.pages, p)
	}

	return r, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew(pages ...domain.PageDescriptor) *Registry {
	r, err := New(pages...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultPages returns the pages of the default site.
func DefaultPages() []domain.PageDescriptor {
	return []domain.PageDescriptor{
		{ID: domain.PageHome, Location: "index.html", Title: "Blog Lập Trình Mạng — Trang Chủ"},
		{ID: domain.PageBlog, Location: "blog.html", Title: "Blog Lập Trình Mạng — Bài viết"},
		{ID: domain.PageCV, Location: "cv.html", Title: "CV — Huỳnh Tấn Đạt"},
		{ID: domain.PageContact, Location: "contact.html", Title: "Liên hệ — Huỳnh Tấn Đạt"},
	}
}

// Default returns the registry of the default four-page site.
func Default() *Registry {
	return MustNew(DefaultPages()...)
}

// Resolve returns the descriptor of id, or an *domain.UnknownPageError.
func (r *Registry) Resolve(id domain.PageID) (domain.PageDescriptor, error) {
	if p, ok := r.Lookup(id); ok {
		return p, nil
	}
	return domain.PageDescriptor{}, &domain.UnknownPageError{ID: id}
}

// Lookup returns the descriptor of id and whether it exists.
func (r *Registry) Lookup(id domain.PageID) (domain.PageDescriptor, bool) {
	i, ok := r.index[id]
	if !ok {
		return domain.PageDescriptor{}, false
	}
	return r.pages[i], true
}

// Index returns the position of id in navigation order, or -1.
func (r *Registry) Index(id domain.PageID) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

// Pages returns the descriptors in navigation order.
func (r *Registry) Pages() []domain.PageDescriptor {
	out := make([]domain.PageDescriptor, len(r.pages))
	copy(out, r.pages)
	return out
}

// Landing returns the page assumed for any unrecognised location.
func (r *Registry) Landing() domain.PageID {
	return r.pages[0].ID
}

// IdentifyFromLocation maps a URL or path to the page it addresses.
// Unrecognised locations resolve to the landing page.
func (r *Registry) IdentifyFromLocation(location string) domain.PageID {
	id, _ := r.Match(location)
	return id
}

// Match is like IdentifyFromLocation but reports whether the location actually
// addresses a registered page. The site root ("" or a trailing "/") addresses the
// landing page.
func (r *Registry) Match(location string) (domain.PageID, bool) {
	p := pathOf(location)
	if p == "" || strings.HasSuffix(p, "/") {
		return r.Landing(), true
	}

	for _, page := range r.pages {
		loc := normalize(page.Location)
		if p == loc || strings.HasSuffix(p, "/"+loc) {
			return page.ID, true
		}
	}
	return r.Landing(), false
}

// ResolveHref reports the page a link targets when following it can stay inside
// the app. Absolute URLs, links to another host, in-page anchors and unknown paths
// report false.
func (r *Registry) ResolveHref(href string) (domain.PageID, bool) {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	if u.Path == "" && u.Fragment != "" {
		return "", false
	}
	return r.Match(href)
}

// pathOf strips scheme, host, query and fragment from location.
func pathOf(location string) string {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return strings.TrimPrefix(location, "./")
	}
	return strings.TrimPrefix(u.Path, "./")
}

func normalize(location string) string {
	return strings.TrimLeft(strings.TrimPrefix(strings.TrimSpace(location), "./"), "/")
}
