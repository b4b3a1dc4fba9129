package app

import (
	"context"
	"sync"

	"github.com/hyperifyio/goprofile/internal/page"
)

// pageRecorder wraps a Navigator and keeps a digest of every page it opened,
// in first-open order.
type pageRecorder struct {
	nav page.Navigator

	mu    sync.Mutex
	pages []manifestPage
	seen  map[string]bool
}

func newPageRecorder(nav page.Navigator) *pageRecorder {
	return &pageRecorder{nav: nav, seen: map[string]bool{}}
}

func (r *pageRecorder) Open(ctx context.Context, rawURL string) (page.Driver, error) {
	d, err := r.nav.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if raw, ok := d.(interface{ Raw() []byte }); ok {
		r.record(rawURL, raw.Raw())
	}
	return d, nil
}

func (r *pageRecorder) record(rawURL string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[rawURL] {
		return
	}
	r.seen[rawURL] = true
	r.pages = append(r.pages, manifestPage{URL: rawURL, SHA256: computeSHA256Hex(body), Bytes: len(body)})
}

// Pages returns a copy of the recorded pages.
func (r *pageRecorder) Pages() []manifestPage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]manifestPage(nil), r.pages...)
}
