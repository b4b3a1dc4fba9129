package extract

import (
	"context"
	"strings"

	"github.com/hyperifyio/goprofile/internal/page"
)

const (
	AriaName     = "aria"
	SemanticName = "semantic"
	RawTextName  = "raw-text"
)

const (
	ariaSelector     = `span[aria-hidden="true"]`
	semanticSelector = `h1, h2, h3, h4, h5, h6, p, dt, dd, li:not(:has(p, h1, h2, h3, h4, h5, h6, dt, dd, li))`
)

// NewAria reads only the aria-hidden visual copies of doubled
// screen-reader text, keeping the first instance of each label.
func NewAria(opts Options) Strategy {
	return &reader{name: AriaName, opts: opts, lines: selectedLines(ariaSelector, true)}
}

// NewSemantic reads headings, paragraphs, definition and leaf list items.
func NewSemantic(opts Options) Strategy {
	return &reader{name: SemanticName, opts: opts, lines: selectedLines(semanticSelector, false)}
}

// NewRawText splits the whole visible text of a region into lines.
func NewRawText(opts Options) Strategy {
	return &reader{name: RawTextName, opts: opts, lines: rawLines}
}

func selectedLines(selector string, firstInstance bool) lineReader {
	return func(ctx context.Context, d page.Driver, r page.Region) ([]string, error) {
		nodes, err := d.Children(ctx, r, selector)
		if err != nil {
			return nil, err
		}
		if tree, ok := d.(page.Tree); ok {
			nodes = page.Outermost(tree, nodes)
		}
		var out []string
		seen := make(map[string]struct{})
		for _, n := range nodes {
			txt, err := d.Text(ctx, n)
			if err != nil {
				continue
			}
			for _, line := range strings.Split(txt, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if firstInstance {
					if _, dup := seen[line]; dup {
						continue
					}
					seen[line] = struct{}{}
				}
				out = append(out, line)
			}
		}
		return out, nil
	}
}

func rawLines(ctx context.Context, d page.Driver, r page.Region) ([]string, error) {
	txt, err := d.Text(ctx, r)
	if err != nil {
		return nil, err
	}
	return strings.Split(txt, "\n"), nil
}
