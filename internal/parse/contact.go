package parse

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/goprofile/internal/dedupe"
	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/profile"
)

// MapContactHeading maps a contact dialog heading to a contact type.
func MapContactHeading(heading string) (profile.ContactType, bool) {
	h := fold(heading)
	switch {
	case strings.Contains(h, "profile"):
		return profile.ContactLinkedin, true
	case strings.Contains(h, "website"):
		return profile.ContactWebsite, true
	case strings.Contains(h, "email"):
		return profile.ContactEmail, true
	case strings.Contains(h, "phone"):
		return profile.ContactPhone, true
	case strings.Contains(h, "twitter"), strings.Contains(h, "x.com"):
		return profile.ContactTwitter, true
	case strings.Contains(h, "birthday"):
		return profile.ContactBirthday, true
	case strings.Contains(h, "address"):
		return profile.ContactAddress, true
	}
	return "", false
}

var leadingColon = regexp.MustCompile(`^:\s*`)

// ContactInterpreter reads the labelled blocks of the contact info dialog.
type ContactInterpreter struct{}

// ParseRaw converts dialog sections into contacts, deduplicated by type and
// value with the first occurrence kept.
func (ContactInterpreter) ParseRaw(sections []extract.RawSection) []profile.Contact {
	var out []profile.Contact
	for _, s := range sections {
		out = append(out, contactsOf(s)...)
	}
	return dedupe.Items(out, ContactKey)
}

func contactsOf(s extract.RawSection) []profile.Contact {
	typ, ok := MapContactHeading(s.Heading)
	if !ok {
		return nil
	}
	label := ""
	if len(s.Labels) > 0 {
		label = s.Labels[0]
	}
	switch typ {
	case profile.ContactPhone, profile.ContactBirthday, profile.ContactAddress:
		v := plainValue(s.Text, s.Heading, s.Labels)
		if v == "" {
			return nil
		}
		return []profile.Contact{{Type: typ, Value: v, Label: label}}
	case profile.ContactWebsite:
		var out []profile.Contact
		for i, a := range usableAnchors(s.Anchors) {
			l := ""
			if i < len(s.Labels) {
				l = s.Labels[i]
			}
			out = append(out, profile.Contact{Type: typ, Value: anchorValue(a), Label: l})
		}
		return out
	}
	anchors := usableAnchors(s.Anchors)
	if len(anchors) == 0 {
		return nil
	}
	v := anchorValue(anchors[0])
	if typ == profile.ContactEmail {
		v = strings.TrimPrefix(v, "mailto:")
	}
	if v == "" {
		return nil
	}
	return []profile.Contact{{Type: typ, Value: v, Label: label}}
}

func usableAnchors(in []page.Anchor) []page.Anchor {
	out := make([]page.Anchor, 0, len(in))
	for _, a := range in {
		a.Href = strings.TrimSpace(a.Href)
		a.Text = strings.TrimSpace(a.Text)
		if a.Href != "" && !usableHref(a.Href) {
			a.Href = ""
		}
		if a.Href == "" && a.Text == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func anchorValue(a page.Anchor) string {
	if a.Href != "" {
		return a.Href
	}
	return a.Text
}

// plainValue strips the heading, a leading colon and trailing "(label)"
// markers from a section's text.
func plainValue(text, heading string, labels []string) string {
	v := strings.Join(strings.Fields(text), " ")
	if h := strings.TrimSpace(heading); h != "" {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(h) + `\s*`)
		v = re.ReplaceAllString(v, "")
	}
	v = strings.TrimSpace(leadingColon.ReplaceAllString(v, ""))
	for _, l := range labels {
		if trimmed, ok := cutSuffixFold(v, "("+l+")"); ok {
			v = strings.TrimSpace(trimmed)
		}
	}
	return v
}

// Parse reads a record as one contact block: the first line is the
// heading, the rest is its text.
func (ContactInterpreter) Parse(rec extract.Record) (profile.Contact, bool) {
	s := extract.RawSection{Heading: rec.Line(0), Text: strings.Join(rec.Texts, " ")}
	for _, l := range rec.Links {
		s.Anchors = append(s.Anchors, page.Anchor{Href: l.URL, Text: l.Text})
	}
	cs := contactsOf(s)
	if len(cs) == 0 {
		return profile.Contact{}, false
	}
	return cs[0], true
}

func (ContactInterpreter) Validate(v profile.Contact) bool {
	switch v.Type {
	case profile.ContactLinkedin, profile.ContactEmail, profile.ContactPhone, profile.ContactWebsite,
		profile.ContactTwitter, profile.ContactBirthday, profile.ContactAddress:
		return v.Value != ""
	}
	return false
}

func (ContactInterpreter) Confidence(v profile.Contact) float64 {
	return score(filled(v.Label), 1)
}
