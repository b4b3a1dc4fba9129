// Package regions resolves a logical profile section to the raw regions the
// extraction pipeline reads, using the selector fallback table and a page
// navigator for details pages.
package regions

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/parse"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

// EmptyText marks a details page that has no entries.
const EmptyText = "Nothing to see for now"

// CategoryKey is the context key carrying a tab or details page category.
const CategoryKey = "category"

// Extraction is what a section resolved to. Driver reads Items; Raw is only
// set for dialog sections.
type Extraction struct {
	Section string
	Kind    selectors.Kind
	Driver  page.Driver
	Items   []page.TaggedRegion
	Raw     []extract.RawSection
	// Sources lists the URLs that were opened besides the main page.
	Sources []string
}

// Empty reports whether nothing was located.
func (e Extraction) Empty() bool { return len(e.Items) == 0 && len(e.Raw) == 0 }

// Extractor is the Page Region Extractor.
type Extractor struct {
	table   selectors.Table
	nav     page.Navigator
	baseURL string
}

// New returns an Extractor for the profile at baseURL. nav may be nil when
// only the main page is available.
func New(table selectors.Table, nav page.Navigator, baseURL string) *Extractor {
	return &Extractor{table: table, nav: nav, baseURL: baseURL}
}

// Table returns the selector table in use.
func (x *Extractor) Table() selectors.Table { return x.table }

// Extract locates the regions of section on main, opening details pages when
// the main page does not carry the section. Lookup failures yield an empty
// Extraction, never an error; only an unknown section name is an error.
func (x *Extractor) Extract(ctx context.Context, section string, main page.Driver) (Extraction, error) {
	sec, ok := x.table.Lookup(section)
	if !ok {
		return Extraction{}, fmt.Errorf("unknown section %q", section)
	}
	out := Extraction{Section: section, Kind: sec.Kind, Driver: main}
	switch sec.Kind {
	case selectors.Single:
		x.single(ctx, sec, &out)
	case selectors.List:
		x.list(ctx, sec, &out)
	case selectors.Tabbed:
		x.tabbed(ctx, sec, &out)
	case selectors.Categorized:
		x.categorized(ctx, sec, &out)
	case selectors.Dialog:
		x.dialog(ctx, sec, &out)
	default:
		return out, fmt.Errorf("section %q: unsupported kind %q", section, sec.Kind)
	}
	log.Ctx(ctx).Debug().Str("section", section).Int("items", len(out.Items)).Int("raw", len(out.Raw)).Msg("regions located")
	return out, nil
}

func (x *Extractor) single(ctx context.Context, sec selectors.Section, out *Extraction) {
	d := out.Driver
	if d == nil {
		return
	}
	if r, ok := firstMatch(ctx, d, nil, sec.Roots, 1); ok {
		out.Items = tag(r[:1], nil)
		return
	}
	if r, ok := byHeading(ctx, d, sec.Heading); ok {
		out.Items = tag([]page.Region{r}, nil)
		return
	}
	if r := scope(ctx, d); r != nil {
		out.Items = tag([]page.Region{r}, nil)
	}
}

func (x *Extractor) list(ctx context.Context, sec selectors.Section, out *Extraction) {
	if d := out.Driver; d != nil {
		if r, ok := byHeading(ctx, d, sec.Heading); ok {
			if items, ok := firstMatch(ctx, d, r, sec.Items, sec.MinItems); ok {
				out.Items = tag(items, nil)
				return
			}
		}
	}
	d, ok := x.open(ctx, sec.DetailsPath, out)
	if !ok {
		return
	}
	out.Driver = d
	if items, ok := firstMatch(ctx, d, scope(ctx, d), sec.Items, sec.MinItems); ok {
		out.Items = tag(items, nil)
	}
}

func (x *Extractor) tabbed(ctx context.Context, sec selectors.Section, out *Extraction) {
	if d := out.Driver; d != nil {
		if r, ok := byHeading(ctx, d, sec.Heading); ok {
			if items := tabItems(ctx, d, r, sec); len(items) > 0 {
				out.Items = items
				return
			}
		}
	}
	d, ok := x.open(ctx, sec.DetailsPath, out)
	if !ok {
		return
	}
	out.Driver = d
	out.Items = tabItems(ctx, d, scope(ctx, d), sec)
}

// tabItems pairs tabs with panels by position and tags each panel's items
// with the tab's category. Without tabs the items are returned untagged.
func tabItems(ctx context.Context, d page.Driver, root page.Region, sec selectors.Section) []page.TaggedRegion {
	tabs, _ := firstMatch(ctx, d, root, sec.Tabs, 1)
	panels, _ := firstMatch(ctx, d, root, sec.Panels, 1)
	if len(tabs) == 0 || len(panels) == 0 {
		items, _ := firstMatch(ctx, d, root, sec.Items, sec.MinItems)
		return tag(items, nil)
	}
	var out []page.TaggedRegion
	if len(panels) < len(tabs) {
		// Only the active panel is rendered.
		tab := selectedTab(ctx, d, tabs)
		items, _ := firstMatch(ctx, d, panels[0], sec.Items, 1)
		return tag(items, map[string]string{CategoryKey: category(ctx, d, tab)})
	}
	for i, tab := range tabs {
		items, _ := firstMatch(ctx, d, panels[i], sec.Items, 1)
		out = append(out, tag(items, map[string]string{CategoryKey: category(ctx, d, tab)})...)
	}
	return out
}

func selectedTab(ctx context.Context, d page.Driver, tabs []page.Region) page.Region {
	t, ok := d.(page.Tree)
	if !ok {
		return tabs[0]
	}
	selected, err := d.Locate(ctx, `[aria-selected="true"]`)
	if err != nil {
		return tabs[0]
	}
	for _, tab := range tabs {
		for _, s := range selected {
			if t.Same(tab, s) {
				return tab
			}
		}
	}
	return tabs[0]
}

func category(ctx context.Context, d page.Driver, tab page.Region) string {
	text, err := d.Text(ctx, tab)
	if err != nil {
		return ""
	}
	lines := extract.SplitLines(text)
	if len(lines) == 0 {
		return ""
	}
	return parse.MapInterestCategory(lines[0])
}

func (x *Extractor) categorized(ctx context.Context, sec selectors.Section, out *Extraction) {
	var drivers []page.Driver
	type group struct {
		idx   int
		cat   string
		items []page.Region
	}
	var groups []group
	for _, c := range sec.Categories {
		d, ok := x.open(ctx, c.Path, out)
		if !ok {
			continue
		}
		items, ok := firstMatch(ctx, d, scope(ctx, d), sec.Items, sec.MinItems)
		if !ok {
			continue
		}
		groups = append(groups, group{idx: len(drivers), cat: c.Name, items: items})
		drivers = append(drivers, d)
	}
	if len(drivers) == 0 {
		out.Driver = nil
		return
	}
	m := page.Join(drivers...)
	out.Driver = m
	for _, g := range groups {
		for _, r := range g.items {
			out.Items = append(out.Items, page.TaggedRegion{
				Region:  m.Wrap(g.idx, r),
				Context: map[string]string{CategoryKey: g.cat},
			})
		}
	}
}

// open loads base+path through the navigator. Pages showing the empty state
// are treated as missing.
func (x *Extractor) open(ctx context.Context, path string, out *Extraction) (page.Driver, bool) {
	if x.nav == nil || path == "" || x.baseURL == "" {
		return nil, false
	}
	u := page.JoinPath(x.baseURL, path)
	d, err := x.nav.Open(ctx, u)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("section", out.Section).Str("url", u).Msg("details page unavailable")
		return nil, false
	}
	out.Sources = append(out.Sources, u)
	if isEmptyPage(ctx, d) {
		log.Ctx(ctx).Debug().Str("section", out.Section).Str("url", u).Msg("details page is empty")
		return nil, false
	}
	return d, true
}

func isEmptyPage(ctx context.Context, d page.Driver) bool {
	body, err := d.Locate(ctx, "body")
	if err != nil || len(body) == 0 {
		return false
	}
	text, err := d.Text(ctx, body[0])
	return err == nil && strings.Contains(text, EmptyText)
}

// firstMatch returns the matches of the first candidate with at least min
// regions, searched below root or across the document when root is nil.
// Regions nested in other matches are dropped.
func firstMatch(ctx context.Context, d page.Driver, root page.Region, candidates []string, min int) ([]page.Region, bool) {
	if min < 1 {
		min = 1
	}
	for _, sel := range candidates {
		var (
			found []page.Region
			err   error
		)
		if root == nil {
			found, err = d.Locate(ctx, sel)
		} else {
			found, err = d.Children(ctx, root, sel)
		}
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("selector", sel).Msg("selector lookup failed")
			continue
		}
		if t, ok := d.(page.Tree); ok {
			found = page.Outermost(t, found)
		}
		if len(found) >= min {
			return found, true
		}
	}
	return nil, false
}

func byHeading(ctx context.Context, d page.Driver, heading string) (page.Region, bool) {
	if heading == "" {
		return nil, false
	}
	hl, ok := d.(page.HeadingLocator)
	if !ok {
		return nil, false
	}
	return hl.SectionByHeading(ctx, heading)
}

// scope returns the main landmark, the body, or nil for the whole document.
func scope(ctx context.Context, d page.Driver) page.Region {
	for _, sel := range []string{"main", "body"} {
		if r, err := d.Locate(ctx, sel); err == nil && len(r) > 0 {
			return r[0]
		}
	}
	return nil
}

func tag(regions []page.Region, ctxTags map[string]string) []page.TaggedRegion {
	out := make([]page.TaggedRegion, 0, len(regions))
	for _, r := range regions {
		var c map[string]string
		if ctxTags != nil {
			c = make(map[string]string, len(ctxTags))
			for k, v := range ctxTags {
				c[k] = v
			}
		}
		out = append(out, page.TaggedRegion{Region: r, Context: c})
	}
	return out
}
