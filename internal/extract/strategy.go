package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/goprofile/internal/page"
)

// Strategy is one reading of a set of regions. Attempt returns one record
// per region that yielded any text; a failing region is skipped, never
// fatal. An error is returned only when the whole attempt could not run.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, d page.Driver, regions []page.TaggedRegion) ([]Record, error)
}

// Options tune how strategies read regions.
type Options struct {
	// SiteHost classifies links as internal or external.
	SiteHost string
	// SubItemSelector, when set, locates nested records (positions of a
	// multi-position experience entry) inside each region.
	SubItemSelector string
	// Concurrency bounds per-region driver work. Zero means 4.
	Concurrency int
}

const defaultConcurrency = 4

// DefaultStrategies returns the three strategies in priority order.
func DefaultStrategies(opts Options) []Strategy {
	return []Strategy{NewAria(opts), NewSemantic(opts), NewRawText(opts)}
}

// lineReader produces the text lines one strategy sees in a region.
type lineReader func(ctx context.Context, d page.Driver, r page.Region) ([]string, error)

// reader is the shared region walk every strategy is built on.
type reader struct {
	name  string
	opts  Options
	lines lineReader
}

func (s *reader) Name() string { return s.name }

func (s *reader) Attempt(ctx context.Context, d page.Driver, regions []page.TaggedRegion) ([]Record, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: no driver", s.name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := s.opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	slots := make([]*Record, len(regions))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, tr := range regions {
		i, tr := i, tr
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Ctx(ctx).Debug().Str("strategy", s.name).Int("region", i).Interface("panic", r).Msg("region skipped")
				}
			}()
			rec, ok := s.record(ctx, d, tr)
			if ok {
				slots[i] = &rec
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *reader) record(ctx context.Context, d page.Driver, tr page.TaggedRegion) (Record, bool) {
	texts, err := s.lines(ctx, d, tr.Region)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("strategy", s.name).Msg("region text failed")
		return Record{}, false
	}
	rec := Record{
		Texts:   NormalizeLines(texts),
		Links:   s.links(ctx, d, tr.Region),
		Context: copyContext(tr.Context),
	}
	if s.opts.SubItemSelector != "" {
		rec.SubItems = s.subItems(ctx, d, tr.Region)
		if len(rec.SubItems) > 0 {
			rec.Texts = withoutSubTexts(rec.Texts, rec.SubItems)
		}
	}
	if len(rec.Texts) == 0 && len(rec.SubItems) == 0 {
		return Record{}, false
	}
	return rec, true
}

func (s *reader) links(ctx context.Context, d page.Driver, r page.Region) []Link {
	anchors, err := d.Links(ctx, r)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("strategy", s.name).Msg("region links failed")
		return nil
	}
	out := make([]Link, 0, len(anchors))
	for _, a := range anchors {
		if a.Href == "" {
			continue
		}
		out = append(out, Link{URL: a.Href, Text: a.Text, External: IsExternal(a.Href, s.opts.SiteHost)})
	}
	return out
}

func (s *reader) subItems(ctx context.Context, d page.Driver, r page.Region) []Record {
	children, err := d.Children(ctx, r, s.opts.SubItemSelector)
	if err != nil || len(children) == 0 {
		return nil
	}
	if tree, ok := d.(page.Tree); ok {
		children = page.Outermost(tree, children)
	}
	var out []Record
	for _, c := range children {
		texts, err := s.lines(ctx, d, c)
		if err != nil {
			continue
		}
		texts = NormalizeLines(texts)
		if len(texts) == 0 {
			continue
		}
		out = append(out, Record{Texts: texts, Links: s.links(ctx, d, c)})
	}
	return out
}

func withoutSubTexts(texts []string, subs []Record) []string {
	seen := make(map[string]struct{})
	for _, s := range subs {
		for _, t := range s.Texts {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return NormalizeLines(out)
}

func copyContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
