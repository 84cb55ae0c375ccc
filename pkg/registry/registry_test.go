package registry_test

import (
	"testing"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Order(t *testing.T) {
	r := registry.Default()

	var ids []domain.PageID
	for _, p := range r.Pages() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []domain.PageID{domain.PageHome, domain.PageBlog, domain.PageCV, domain.PageContact}, ids)
	assert.Equal(t, domain.PageHome, r.Landing())
	assert.Equal(t, 3, r.Index(domain.PageContact))
	assert.Equal(t, -1, r.Index("missing"))
}

func TestResolve(t *testing.T) {
	r := registry.Default()

	desc, err := r.Resolve(domain.PageCV)
	require.NoError(t, err)
	assert.Equal(t, "cv.html", desc.Location)
	assert.Equal(t, "CV — Huỳnh Tấn Đạt", desc.Title)

	_, err = r.Resolve("about")
	var unknown *domain.UnknownPageError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, domain.PageID("about"), unknown.ID)
}

func TestIdentifyFromLocation(t *testing.T) {
	r := registry.Default()

	tests := []struct {
		location string
		want     domain.PageID
	}{
		{"blog.html", domain.PageBlog},
		{"/blog.html", domain.PageBlog},
		{"./cv.html", domain.PageCV},
		{"https://example.com/site/contact.html?ref=nav#form", domain.PageContact},
		{"/", domain.PageHome},
		{"", domain.PageHome},
		{"/index.html", domain.PageHome},
		{"/about.html", domain.PageHome},
		{"/myblog.html", domain.PageHome},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IdentifyFromLocation(tt.location))
		})
	}
}

func TestMatch_ReportsUnknown(t *testing.T) {
	r := registry.Default()

	id, ok := r.Match("/about.html")
	assert.False(t, ok)
	assert.Equal(t, domain.PageHome, id)

	id, ok = r.Match("/site/")
	assert.True(t, ok)
	assert.Equal(t, domain.PageHome, id)
}

func TestNew_Validation(t *testing.T) {
	_, err := registry.New()
	assert.Error(t, err)

	_, err = registry.New(domain.PageDescriptor{ID: "a", Location: "a.html"}, domain.PageDescriptor{ID: "a", Location: "b.html"})
	assert.ErrorContains(t, err, "duplicate page id")

	_, err = registry.New(domain.PageDescriptor{ID: "a", Location: "a.html"}, domain.PageDescriptor{ID: "b", Location: "/a.html"})
	assert.ErrorContains(t, err, "share location")

	_, err = registry.New(domain.PageDescriptor{ID: "a"})
	assert.ErrorContains(t, err, "no location")

	assert.Panics(t, func() { registry.MustNew() })
}

func TestPages_ReturnsCopy(t *testing.T) {
	r := registry.Default()
	pages := r.Pages()
	pages[0].Title = "changed"

	desc, _ := r.Resolve(domain.PageHome)
	assert.NotEqual(t, "changed", desc.Title)
}

func TestResolveHref(t *testing.T) {
	reg := registry.Default()
	tests := []struct {
		href string
		want domain.PageID
		ok   bool
	}{
		{"cv.html", domain.PageCV, true},
		{"./contact.html?ref=nav", domain.PageContact, true},
		{"/", domain.PageHome, true},
		{"#top", "", false},
		{"https://example.com/cv.html", "", false},
		{"//cdn.example.com/blog.html", "", false},
		{"mailto:me@example.com", "", false},
		{"about.html", domain.PageHome, false},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			id, ok := reg.ResolveHref(tt.href)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}
