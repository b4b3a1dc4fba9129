package page

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// StaticNavigator serves in-memory pages keyed by URL. Trailing slashes are
// ignored when matching.
type StaticNavigator struct {
	Pages map[string]string
}

func (n StaticNavigator) Open(ctx context.Context, rawURL string) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := strings.TrimRight(rawURL, "/")
	for k, body := range n.Pages {
		if strings.TrimRight(k, "/") == want {
			return FromHTML([]byte(body), rawURL)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
}

// DirNavigator serves pages saved on disk. The profile page is Dir/index.html
// and a sub page such as details/experience/ is Dir/details/experience.html.
type DirNavigator struct {
	Dir string
	// Base is the profile URL the saved pages were captured from.
	Base string
}

// PageFile maps a URL below base to its file path relative to the capture
// directory.
func PageFile(base, rawURL string) string {
	rel := strings.TrimPrefix(rawURL, strings.TrimRight(base, "/"))
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return "index.html"
	}
	return filepath.FromSlash(rel) + ".html"
}

func (n DirNavigator) Open(ctx context.Context, rawURL string) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(n.Dir, PageFile(n.Base, rawURL))
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read page: %w", err)
	}
	return FromHTML(b, rawURL)
}

// Fetcher retrieves a page body and its content type.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPNavigator opens pages through a Fetcher.
type HTTPNavigator struct {
	Fetcher Fetcher
}

func (n HTTPNavigator) Open(ctx context.Context, rawURL string) (Driver, error) {
	if n.Fetcher == nil {
		return nil, errors.New("page: no fetcher configured")
	}
	body, _, err := n.Fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return FromHTML(body, rawURL)
}
