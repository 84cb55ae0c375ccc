// Package fetch provides ports.Fetcher implementations backed by an HTTP origin or a
// local site directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxBodySize caps how much of a document is read.
const DefaultMaxBodySize = 8 << 20

// HTTPFetcher fetches page documents relative to a base URL.
type HTTPFetcher struct {
	base    *url.URL
	client  *http.Client
	maxBody int64
	header  http.Header
}

// HTTPOption configures the HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the HTTP client (default: a client with a 30s timeout).
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.maxBody = n
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.header.Add(key, value)
	}
}

// NewHTTPFetcher creates a fetcher resolving page locations against baseURL.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	// Relative locations resolve inside the base "directory".
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	f := &HTTPFetcher{
		base:    base,
		client:  &http.Client{Timeout: 30 * time.Second},
		maxBody: DefaultMaxBodySize,
		header:  make(http.Header),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Resolve returns the absolute URL of location.
func (f *HTTPFetcher) Resolve(location string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(location, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	return f.base.ResolveReference(ref).String(), nil
}

// Fetch performs a GET for location. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	target, err := f.Resolve(location)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", target, ErrBodyTooLarge, f.maxBody)
	}
	return body, nil
}

// ErrBodyTooLarge is returned when a document exceeds the configured body size.
var ErrBodyTooLarge = errors.New("document body too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
