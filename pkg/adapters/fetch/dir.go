package fetch

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
)

// DirFetcher reads page documents from a site directory.
type DirFetcher struct {
	fsys fs.FS
}

// NewDirFetcher serves documents from fsys.
func NewDirFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

// NewDirFetcherFromPath serves documents from the directory at root.
func NewDirFetcherFromPath(root string) (*DirFetcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("site directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site directory: %s is not a directory", root)
	}
	return NewDirFetcher(os.DirFS(root)), nil
}

// Fetch reads the file addressed by location. Query and fragment are ignored.
func (f *DirFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := location
	if u, err := url.Parse(location); err == nil {
		name = u.Path
	}
	name = path.Clean(strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/"))
	if name == "." || strings.HasSuffix(location, "/") {
		name = path.Join(name, "index.html")
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("invalid location %q", location)
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
