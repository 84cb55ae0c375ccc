package domain

// PageID identifies a page of the site.
type PageID string

// The pages of the default site, in navigation order.
const (
	PageHome    PageID = "home"
	PageBlog    PageID = "blog"
	PageCV      PageID = "cv"
	PageContact PageID = "contact"
)

// PageDescriptor describes where a page's document lives and how it is titled.
// Descriptors are immutable once a registry is built.
type PageDescriptor struct {
	ID       PageID `json:"id" yaml:"id" mapstructure:"id"`
	Location string `json:"location" yaml:"location" mapstructure:"location"`
	Title    string `json:"title" yaml:"title" mapstructure:"title"`
}
