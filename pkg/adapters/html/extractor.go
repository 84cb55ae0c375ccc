// Package html extracts content fragments from page documents and converts them
// for terminal display.
package html

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	nethtml "golang.org/x/net/html"
)

// DefaultSelector matches the element whose inner markup is the page content.
const DefaultSelector = "main"

// MainExtractor implements ports.Extractor by returning the inner markup of the
// first element matching a CSS selector.
type MainExtractor struct {
	selector string
	matcher  cascadia.Selector
}

// NewMainExtractor creates an extractor for <main>.
func NewMainExtractor() *MainExtractor {
	e, _ := FromSelector(DefaultSelector)
	return e
}

// FromSelector builds an extractor for any CSS selector, such as "main",
// "#content" or "div.page > article".
func FromSelector(selector string) (*MainExtractor, error) {
	selector = strings.TrimSpace(selector)
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid content selector %q: %w", selector, err)
	}
	return &MainExtractor{selector: selector, matcher: m}, nil
}

// Selector returns the CSS selector the extractor matches.
func (e *MainExtractor) Selector() string {
	return e.selector
}

// Extract returns the inner markup of the content element. It reports false when
// the document does not contain one.
func (e *MainExtractor) Extract(document []byte) (string, bool) {
	doc, err := parse(document)
	if err != nil {
		return "", false
	}
	sel := doc.FindMatcher(e.matcher).First()
	if sel.Length() == 0 {
		return "", false
	}
	fragment, err := sel.Html()
	if err != nil {
		return "", false
	}
	return fragment, true
}

// Title returns the text of the document's <title>, or "" when it has none.
func Title(document []byte) string {
	doc, err := parse(document)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Links returns the href of every anchor in document, in document order.
// Anchors without an href are skipped.
func Links(document []byte) []string {
	doc, err := parse(document)
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			links = append(links, href)
		}
	})
	return links
}

func parse(document []byte) (*goquery.Document, error) {
	root, err := nethtml.Parse(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}
