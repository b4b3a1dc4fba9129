// Package extract turns page regions into strategy-neutral records.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/goprofile/internal/page"
)

// Link is one anchor seen inside a region.
type Link struct {
	URL      string `json:"url"`
	Text     string `json:"anchorText"`
	External bool   `json:"isExternal"`
}

// Record is the strategy-neutral reading of a single region. Texts are
// normalized, never empty and never repeated adjacently.
type Record struct {
	Texts    []string          `json:"texts"`
	Links    []Link            `json:"links"`
	Context  map[string]string `json:"context,omitempty"`
	SubItems []Record          `json:"subItems,omitempty"`
}

// Line returns Texts[i], or "" when out of range.
func (r Record) Line(i int) string {
	if i < 0 || i >= len(r.Texts) {
		return ""
	}
	return r.Texts[i]
}

// Ctx returns a context value, or "".
func (r Record) Ctx(key string) string {
	if r.Context == nil {
		return ""
	}
	return r.Context[key]
}

// RawSection is one labelled block of a dialog-style section such as
// contact info.
type RawSection struct {
	Heading string
	Text    string
	Labels  []string
	Anchors []page.Anchor
}

var noiseLine = regexp.MustCompile(`(?i)^(see patent|show patent|other inventors|\+\d+)$`)

// NormalizeLines applies NFC, collapses whitespace, drops empty and noise
// lines and removes adjacent duplicates.
func NormalizeLines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
		if s == "" || noiseLine.MatchString(s) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SplitLines splits block text on line boundaries and normalizes the result.
func SplitLines(text string) []string {
	return NormalizeLines(strings.Split(text, "\n"))
}

// PlainText joins record lines the way they are reported in plainText
// fields.
func PlainText(texts []string) string {
	return strings.Join(texts, "\n")
}

// IsExternal reports whether href points away from siteHost. Non-http
// targets count as external.
func IsExternal(href, siteHost string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return u.Scheme != ""
	}
	siteHost = strings.ToLower(strings.TrimSpace(siteHost))
	if siteHost == "" {
		return false
	}
	return host != siteHost && !strings.HasSuffix(host, "."+siteHost)
}
