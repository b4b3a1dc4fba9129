// Package parse interprets extraction records into typed profile entities.
package parse

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/hyperifyio/goprofile/internal/extract"
)

// Interpreter turns one record into an entity. Parse reports false when
// required fields are missing. Confidence is only meaningful for values
// Parse accepted.
type Interpreter[T any] interface {
	Parse(rec extract.Record) (T, bool)
	Validate(v T) bool
	Confidence(v T) float64
}

// score is 0.5 for a bare valid entity plus up to 0.5 for optional fields.
func score(present, total int) float64 {
	if total <= 0 {
		return 1
	}
	return 0.5 + 0.5*float64(present)/float64(total)
}

func filled(fields ...string) int {
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func containsFold(s, sub string) bool {
	return strings.Contains(fold(s), fold(sub))
}

// splitDot splits on the middle dot separator used between fields.
func splitDot(s string) []string {
	parts := strings.Split(s, "·")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func usableHref(href string) bool {
	return href != "" && !strings.Contains(href, "#") && !strings.Contains(href, "void(0)")
}

// firstInternalLink returns the first usable link that stays on site.
func firstInternalLink(links []extract.Link) string {
	for _, l := range links {
		if !l.External && usableHref(l.URL) && isHTTP(l.URL) {
			return l.URL
		}
	}
	return ""
}

func firstLinkWhere(links []extract.Link, keep func(extract.Link) bool) string {
	for _, l := range links {
		if usableHref(l.URL) && keep(l) {
			return l.URL
		}
	}
	return ""
}

func isHTTP(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

var (
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	dateStartRe = regexp.MustCompile(`(?i)^((jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+)?(\d{1,2},?\s+)?(19|20)\d{2}\b`)
)

// looksLikeDate reports lines that start with a date such as "Jan 2024",
// "Sep 24, 2019" or "2014 - 2018".
func looksLikeDate(s string) bool {
	return dateStartRe.MatchString(strings.TrimSpace(s))
}

var employmentTypes = []string{
	"full-time", "part-time", "self-employed", "freelance", "contract",
	"internship", "apprenticeship", "seasonal", "permanent", "temporary",
}

func isEmploymentType(s string) bool {
	f := fold(strings.TrimSpace(s))
	for _, t := range employmentTypes {
		if f == t {
			return true
		}
	}
	return false
}
