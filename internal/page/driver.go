// Package page defines the Page Driver contract consumed by the extraction
// core and an HTML-backed implementation of it.
package page

import (
	"context"
	"errors"
)

// Region is an opaque handle to a located DOM area. Only the Driver that
// produced a Region can interpret it.
type Region any

// Anchor is a raw link as seen in the markup.
type Anchor struct {
	Href string
	Text string
}

// TaggedRegion carries per-item context (for example the interest tab a list
// item was found under) alongside the region itself.
type TaggedRegion struct {
	Region  Region
	Context map[string]string
}

// Driver is the minimal DOM surface the extraction core needs. Every call may
// fail with a transient error; callers treat failures as "nothing found".
type Driver interface {
	// Locate returns zero or more regions matching selector, in document order.
	Locate(ctx context.Context, selector string) ([]Region, error)
	// Text returns the visible text of a region with block boundaries as newlines.
	Text(ctx context.Context, r Region) (string, error)
	// Links returns the anchors inside a region, the region itself included.
	Links(ctx context.Context, r Region) ([]Anchor, error)
	// Children returns the descendants of r matching selector.
	Children(ctx context.Context, r Region, selector string) ([]Region, error)
	// HTML serializes the region's outer markup.
	HTML(ctx context.Context, r Region) (string, error)
}

// HeadingLocator is implemented by drivers that can find the section owning a
// visible h2 heading on the main profile page.
type HeadingLocator interface {
	SectionByHeading(ctx context.Context, heading string) (Region, bool)
}

// Tree is implemented by drivers that expose structural relationships
// between regions.
type Tree interface {
	Parent(ctx context.Context, r Region) (Region, bool)
	Same(a, b Region) bool
	Contains(outer, inner Region) bool
}

// Navigator opens a URL and returns a driver for the resulting document.
type Navigator interface {
	Open(ctx context.Context, rawURL string) (Driver, error)
}

var (
	// ErrNoDocument is returned when input cannot be parsed into a document.
	ErrNoDocument = errors.New("page: no document")
	// ErrForeignRegion is returned when a region was produced by another driver.
	ErrForeignRegion = errors.New("page: region does not belong to this document")
	// ErrNotFound is returned by navigators for unknown pages.
	ErrNotFound = errors.New("page: not found")
)
