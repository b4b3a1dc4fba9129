package regions

import (
	"context"
	"regexp"
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

var labelRe = regexp.MustCompile(`^\(([^)]+)\)$`)

// HeadingKey is the context key carrying the block heading of a dialog item.
const HeadingKey = "heading"

// dialog reads the contact info modal: on the main page when it is open,
// otherwise from the overlay page. Each block heading becomes one RawSection.
func (x *Extractor) dialog(ctx context.Context, sec selectors.Section, out *Extraction) {
	var root page.Region
	if d := out.Driver; d != nil {
		if r, ok := firstMatch(ctx, d, nil, sec.Roots, 1); ok {
			root = r[0]
		}
	}
	if root == nil {
		d, ok := x.open(ctx, sec.DetailsPath, out)
		if !ok {
			return
		}
		out.Driver = d
		if r, ok := firstMatch(ctx, d, nil, sec.Roots, 1); ok {
			root = r[0]
		} else {
			root = scope(ctx, d)
		}
	}
	if root == nil {
		return
	}
	blocks := sec.Blocks
	if blocks == "" {
		blocks = "h3"
	}
	d := out.Driver
	headings, err := d.Children(ctx, root, blocks)
	if err != nil {
		return
	}
	for _, h := range headings {
		s, container, ok := rawSection(ctx, d, root, h, blocks)
		if !ok {
			continue
		}
		out.Raw = append(out.Raw, s)
		out.Items = append(out.Items, page.TaggedRegion{
			Region:  container,
			Context: map[string]string{HeadingKey: s.Heading},
		})
	}
}

func rawSection(ctx context.Context, d page.Driver, root, h page.Region, blocks string) (extract.RawSection, page.Region, bool) {
	ht, err := d.Text(ctx, h)
	if err != nil {
		return extract.RawSection{}, nil, false
	}
	heading := strings.Join(strings.Fields(ht), " ")
	if heading == "" {
		return extract.RawSection{}, nil, false
	}
	container := blockContainer(ctx, d, root, h, heading, blocks)
	text, _ := d.Text(ctx, container)
	anchors, _ := d.Links(ctx, container)
	return extract.RawSection{
		Heading: strings.ToLower(heading),
		Text:    strings.Join(strings.Fields(text), " "),
		Labels:  labels(ctx, d, container),
		Anchors: anchors,
	}, container, true
}

// blockContainer walks up from a heading to the nearest ancestor below root
// that holds exactly one heading and some content of its own. The heading's
// parent is used when no ancestor qualifies.
func blockContainer(ctx context.Context, d page.Driver, root, h page.Region, heading, blocks string) page.Region {
	t, ok := d.(page.Tree)
	if !ok {
		return h
	}
	parent, ok := t.Parent(ctx, h)
	if !ok {
		return h
	}
	for cur := parent; cur != nil && !t.Same(cur, root); {
		if hs, err := d.Children(ctx, cur, blocks); err == nil && len(hs) == 1 && hasContent(ctx, d, cur, heading) {
			return cur
		}
		next, ok := t.Parent(ctx, cur)
		if !ok {
			break
		}
		cur = next
	}
	return parent
}

func hasContent(ctx context.Context, d page.Driver, r page.Region, heading string) bool {
	if links, err := d.Links(ctx, r); err == nil && len(links) > 0 {
		return true
	}
	text, err := d.Text(ctx, r)
	if err != nil {
		return false
	}
	return len(strings.Join(strings.Fields(text), " ")) > len(heading)+2
}

func labels(ctx context.Context, d page.Driver, container page.Region) []string {
	nodes, err := d.Children(ctx, container, "span, p, li")
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, n := range nodes {
		text, err := d.Text(ctx, n)
		if err != nil {
			continue
		}
		m := labelRe.FindStringSubmatch(strings.TrimSpace(text))
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}
