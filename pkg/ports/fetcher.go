package ports

import "context"

// Fetcher retrieves the full document stored at a resource location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Extractor returns the inner markup of a document's primary content region.
// It reports false when the document has no such region.
type Extractor interface {
	Extract(document []byte) (string, bool)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(document []byte) (string, bool)

func (f ExtractorFunc) Extract(document []byte) (string, bool) {
	return f(document)
}
