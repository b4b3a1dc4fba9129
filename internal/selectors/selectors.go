// Package selectors holds the per-section selector fallback table consumed
// by the region extractor. A Table is an immutable value; overrides produce
// a new Table.
package selectors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind is the shape of a section on the page.
type Kind string

const (
	// Single sections resolve to one region (top card, about).
	Single Kind = "single"
	// List sections are item lists found on the main page or a details page.
	List Kind = "list"
	// Tabbed sections group list items under tabs (interests).
	Tabbed Kind = "tabbed"
	// Categorized sections span several details pages, one per category.
	Categorized Kind = "categorized"
	// Dialog sections are read as labelled blocks of a modal (contact info).
	Dialog Kind = "dialog"
)

// Section names.
const (
	TopCard         = "top-card"
	About           = "about"
	Experience      = "experience"
	Education       = "education"
	Patents         = "patents"
	Interests       = "interests"
	Accomplishments = "accomplishments"
	Contact         = "contact"
)

// Category is one details page of a categorized section.
type Category struct {
	Path string `yaml:"path"`
	Name string `yaml:"category"`
}

// Section lists the candidate selectors for one logical section. Candidates
// are tried in order.
type Section struct {
	Kind Kind `yaml:"kind"`
	// Heading is the visible h2 text of the section on the main page.
	Heading string `yaml:"heading"`
	// DetailsPath is appended to the profile URL to reach the full list.
	DetailsPath string `yaml:"detailsPath"`
	// Roots locate the container of single and dialog sections.
	Roots []string `yaml:"roots"`
	// Items locate list entries.
	Items []string `yaml:"items"`
	// SubItems locates nested entries inside one item.
	SubItems string `yaml:"subItems"`
	// MinItems is how many matches an item candidate needs to be accepted.
	MinItems   int        `yaml:"minItems"`
	Tabs       []string   `yaml:"tabs"`
	Panels     []string   `yaml:"panels"`
	Categories []Category `yaml:"categories"`
	// Blocks locates the labelled headings inside a dialog.
	Blocks string `yaml:"blocks"`
}

func (s Section) clone() Section {
	s.Roots = append([]string(nil), s.Roots...)
	s.Items = append([]string(nil), s.Items...)
	s.Tabs = append([]string(nil), s.Tabs...)
	s.Panels = append([]string(nil), s.Panels...)
	s.Categories = append([]Category(nil), s.Categories...)
	return s
}

// Table maps section names to their selectors.
type Table struct {
	sections map[string]Section
}

// Lookup returns a copy of the named section.
func (t Table) Lookup(name string) (Section, bool) {
	s, ok := t.sections[name]
	if !ok {
		return Section{}, false
	}
	return s.clone(), true
}

// Names lists the configured sections in sorted order.
func (t Table) Names() []string {
	out := make([]string, 0, len(t.sections))
	for k := range t.sections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var listItems = []string{
	`[componentkey^="entity-collection-item"]`,
	`.pvs-list__container .pvs-list__paged-list-item`,
	`.pvs-list__paged-list-item`,
	`li.artdeco-list__item`,
	`ul > li`,
}

// Default returns the built-in table.
func Default() Table {
	return Table{sections: map[string]Section{
		TopCard: {
			Kind:  Single,
			Roots: []string{`section.artdeco-card[data-member-id]`, `main section.artdeco-card`, `[data-view-name*="profile-top-card"]`},
		},
		About: {
			Kind:    Single,
			Heading: "About",
			Roots:   []string{`[data-testid="expandable-text-box"]`, `[data-view-name="profile-card-about"]`, `[data-view-name="profile-card"]`},
		},
		Experience: {
			Kind:        List,
			Heading:     "Experience",
			DetailsPath: "details/experience/",
			Items:       listItems,
			SubItems:    `.pvs-entity__sub-components [data-view-name="profile-component-entity"], ul.positions > li`,
			MinItems:    1,
		},
		Education: {
			Kind:        List,
			Heading:     "Education",
			DetailsPath: "details/education/",
			Items:       listItems,
			MinItems:    1,
		},
		Patents: {
			Kind:        List,
			Heading:     "Patents",
			DetailsPath: "details/patents/",
			Items:       listItems,
			MinItems:    1,
		},
		Interests: {
			Kind:        Tabbed,
			Heading:     "Interests",
			DetailsPath: "details/interests/",
			Tabs:        []string{`[role="tab"]`, `tab`},
			Panels:      []string{`[role="tabpanel"]`, `tabpanel`},
			Items:       []string{`.pvs-list__paged-list-item`, `li`},
			MinItems:    1,
		},
		Accomplishments: {
			Kind:     Categorized,
			Items:    []string{`.pvs-list__paged-list-item`, `main ul > li`, `main ol > li`},
			MinItems: 1,
			Categories: []Category{
				{Path: "details/certifications/", Name: "certification"},
				{Path: "details/honors/", Name: "honor"},
				{Path: "details/publications/", Name: "publication"},
				{Path: "details/courses/", Name: "course"},
				{Path: "details/projects/", Name: "project"},
				{Path: "details/languages/", Name: "language"},
				{Path: "details/organizations/", Name: "organization"},
				{Path: "details/volunteering-experiences/", Name: "volunteering"},
				{Path: "details/test-scores/", Name: "test score"},
			},
		},
		Contact: {
			Kind:        Dialog,
			DetailsPath: "overlay/contact-info/",
			Roots:       []string{`dialog`, `[role="dialog"]`, `.artdeco-modal`},
			Blocks:      "h3",
		},
	}}
}

type overrideFile struct {
	Sections map[string]Section `yaml:"sections"`
}

// Merge returns a new table where every non-empty field of the overrides
// replaces the base value. New sections must declare their kind.
func Merge(base Table, overrides map[string]Section) (Table, error) {
	out := Table{sections: make(map[string]Section, len(base.sections)+len(overrides))}
	for k, v := range base.sections {
		out.sections[k] = v.clone()
	}
	for name, o := range overrides {
		cur, ok := out.sections[name]
		if !ok && o.Kind == "" {
			return Table{}, fmt.Errorf("section %q: kind is required for new sections", name)
		}
		out.sections[name] = overlay(cur, o)
	}
	return out, nil
}

func overlay(cur, o Section) Section {
	if o.Kind != "" {
		cur.Kind = o.Kind
	}
	if o.Heading != "" {
		cur.Heading = o.Heading
	}
	if o.DetailsPath != "" {
		cur.DetailsPath = o.DetailsPath
	}
	if len(o.Roots) > 0 {
		cur.Roots = append([]string(nil), o.Roots...)
	}
	if len(o.Items) > 0 {
		cur.Items = append([]string(nil), o.Items...)
	}
	if o.SubItems != "" {
		cur.SubItems = o.SubItems
	}
	if o.MinItems > 0 {
		cur.MinItems = o.MinItems
	}
	if len(o.Tabs) > 0 {
		cur.Tabs = append([]string(nil), o.Tabs...)
	}
	if len(o.Panels) > 0 {
		cur.Panels = append([]string(nil), o.Panels...)
	}
	if len(o.Categories) > 0 {
		cur.Categories = append([]Category(nil), o.Categories...)
	}
	if o.Blocks != "" {
		cur.Blocks = o.Blocks
	}
	return cur
}

// Parse reads YAML overrides of the form "sections: {name: {...}}" and
// merges them over base.
func Parse(data []byte, base Table) (Table, error) {
	var f overrideFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("parse selectors: %w", err)
	}
	return Merge(base, f.Sections)
}

// Load merges the overrides file at path over the built-in table. An empty
// path returns the defaults.
func Load(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read selectors: %w", err)
	}
	return Parse(data, Default())
}
