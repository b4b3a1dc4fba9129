package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a Driver over a parsed, static HTML page. Regions are
// *html.Node values belonging to the document.
type Document struct {
	doc  *goquery.Document
	base *url.URL
	raw  []byte
}

// Parse reads HTML from r. baseURL, when non-empty, is used to resolve
// relative links.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return FromHTML(raw, baseURL)
}

// FromHTML parses raw HTML bytes into a Document.
func FromHTML(raw []byte, baseURL string) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrNoDocument
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	d := &Document{doc: doc, raw: raw}
	if strings.TrimSpace(baseURL) != "" {
		if u, err := url.Parse(baseURL); err == nil {
			d.base = u
			doc.Url = u
		}
	}
	return d, nil
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte { return d.raw }

// BaseURL returns the document URL, or nil when unknown.
func (d *Document) BaseURL() *url.URL { return d.base }

func (d *Document) node(r Region) (*html.Node, error) {
	n, ok := r.(*html.Node)
	if !ok || n == nil {
		return nil, ErrForeignRegion
	}
	return n, nil
}

func compile(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	return m, nil
}

func toRegions(nodes []*html.Node) []Region {
	out := make([]Region, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out
}

func (d *Document) Locate(ctx context.Context, selector string) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return toRegions(d.doc.FindMatcher(m).Nodes), nil
}

func (d *Document) Text(ctx context.Context, r Region) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := d.node(r)
	if err != nil {
		return "", err
	}
	return innerText(n), nil
}

func (d *Document) Links(ctx context.Context, r Region) ([]Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := d.node(r)
	if err != nil {
		return nil, err
	}
	sel := d.doc.FindNodes(n)
	anchors := sel.Find("a[href]")
	if goquery.NodeName(sel) == "a" {
		anchors = sel.AddSelection(anchors)
	}
	out := make([]Anchor, 0, anchors.Length())
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		out = append(out, Anchor{
			Href: ResolveHref(d.base, href),
			Text: collapseSpaces(strings.TrimSpace(a.Text())),
		})
	})
	return out, nil
}

func (d *Document) Children(ctx context.Context, r Region, selector string) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := d.node(r)
	if err != nil {
		return nil, err
	}
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return toRegions(d.doc.FindNodes(n).FindMatcher(m).Nodes), nil
}

func (d *Document) HTML(ctx context.Context, r Region) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := d.node(r)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render region: %w", err)
	}
	return buf.String(), nil
}

// SectionByHeading finds the first h2 whose text contains heading and returns
// the nearest ancestor that owns a list or tablist, falling back to the
// fourth ancestor of the heading.
func (d *Document) SectionByHeading(ctx context.Context, heading string) (Region, bool) {
	if ctx.Err() != nil || strings.TrimSpace(heading) == "" {
		return nil, false
	}
	root := d.doc.Get(0)
	if root == nil {
		return nil, false
	}
	h, err := htmlquery.Query(root, fmt.Sprintf("//h2[contains(normalize-space(.), %s)]", xpathLiteral(heading)))
	if err != nil || h == nil {
		return nil, false
	}
	if sec, err := htmlquery.Query(h, `ancestor::*[.//ul or .//ol or .//*[@role="tablist"]][1]`); err == nil && sec != nil {
		return sec, true
	}
	if sec, err := htmlquery.Query(h, "ancestor::*[4]"); err == nil && sec != nil {
		return sec, true
	}
	return nil, false
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}

func (d *Document) Parent(_ context.Context, r Region) (Region, bool) {
	n, err := d.node(r)
	if err != nil || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil, false
	}
	return n.Parent, true
}

func (d *Document) Same(a, b Region) bool {
	na, errA := d.node(a)
	nb, errB := d.node(b)
	return errA == nil && errB == nil && na == nb
}

func (d *Document) Contains(outer, inner Region) bool {
	no, errA := d.node(outer)
	ni, errB := d.node(inner)
	if errA != nil || errB != nil {
		return false
	}
	for p := ni.Parent; p != nil; p = p.Parent {
		if p == no {
			return true
		}
	}
	return false
}

var (
	_ Driver         = (*Document)(nil)
	_ HeadingLocator = (*Document)(nil)
	_ Tree           = (*Document)(nil)
)
