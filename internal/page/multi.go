package page

import (
	"context"
	"fmt"
)

// Multi presents several documents as one Driver. Regions must be wrapped
// with Wrap so calls can be routed to the document that produced them.
// Locate searches every document in order.
type Multi struct {
	drivers []Driver
}

type multiRegion struct {
	idx    int
	region Region
}

// Join returns a Driver spanning drivers.
func Join(drivers ...Driver) *Multi {
	return &Multi{drivers: drivers}
}

// Wrap tags r as belonging to the i-th driver.
func (m *Multi) Wrap(i int, r Region) Region {
	return multiRegion{idx: i, region: r}
}

func (m *Multi) unwrap(r Region) (Driver, Region, error) {
	mr, ok := r.(multiRegion)
	if !ok || mr.idx < 0 || mr.idx >= len(m.drivers) {
		return nil, nil, ErrForeignRegion
	}
	return m.drivers[mr.idx], mr.region, nil
}

func (m *Multi) wrapAll(i int, in []Region) []Region {
	out := make([]Region, len(in))
	for k, r := range in {
		out[k] = m.Wrap(i, r)
	}
	return out
}

func (m *Multi) Locate(ctx context.Context, selector string) ([]Region, error) {
	var out []Region
	for i, d := range m.drivers {
		found, err := d.Locate(ctx, selector)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, m.wrapAll(i, found)...)
	}
	return out, nil
}

func (m *Multi) Text(ctx context.Context, r Region) (string, error) {
	d, inner, err := m.unwrap(r)
	if err != nil {
		return "", err
	}
	return d.Text(ctx, inner)
}

func (m *Multi) Links(ctx context.Context, r Region) ([]Anchor, error) {
	d, inner, err := m.unwrap(r)
	if err != nil {
		return nil, err
	}
	return d.Links(ctx, inner)
}

func (m *Multi) Children(ctx context.Context, r Region, selector string) ([]Region, error) {
	d, inner, err := m.unwrap(r)
	if err != nil {
		return nil, err
	}
	found, err := d.Children(ctx, inner, selector)
	if err != nil {
		return nil, err
	}
	return m.wrapAll(r.(multiRegion).idx, found), nil
}

func (m *Multi) HTML(ctx context.Context, r Region) (string, error) {
	d, inner, err := m.unwrap(r)
	if err != nil {
		return "", err
	}
	return d.HTML(ctx, inner)
}

func (m *Multi) Parent(ctx context.Context, r Region) (Region, bool) {
	d, inner, err := m.unwrap(r)
	if err != nil {
		return nil, false
	}
	t, ok := d.(Tree)
	if !ok {
		return nil, false
	}
	p, ok := t.Parent(ctx, inner)
	if !ok {
		return nil, false
	}
	return m.Wrap(r.(multiRegion).idx, p), true
}

func (m *Multi) Same(a, b Region) bool {
	ra, okA := a.(multiRegion)
	rb, okB := b.(multiRegion)
	if !okA || !okB || ra.idx != rb.idx {
		return false
	}
	t, ok := m.tree(ra.idx)
	return ok && t.Same(ra.region, rb.region)
}

func (m *Multi) Contains(outer, inner Region) bool {
	ro, okO := outer.(multiRegion)
	ri, okI := inner.(multiRegion)
	if !okO || !okI || ro.idx != ri.idx {
		return false
	}
	t, ok := m.tree(ro.idx)
	return ok && t.Contains(ro.region, ri.region)
}

func (m *Multi) tree(i int) (Tree, bool) {
	if i < 0 || i >= len(m.drivers) {
		return nil, false
	}
	t, ok := m.drivers[i].(Tree)
	return t, ok
}

var (
	_ Driver = (*Multi)(nil)
	_ Tree   = (*Multi)(nil)
)
