package parse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

var (
	patentIDRe   = regexp.MustCompile(`^[A-Z]{2}\s+[A-Z0-9,\-]+(?:\s+[A-Z0-9,\-]+)*$`)
	issuerIDRe   = regexp.MustCompile(`^([A-Z]{2})\s+(.+)$`)
	redirectRe   = regexp.MustCompile(`url=([^&]+)`)
	issuedPrefix = regexp.MustCompile(`(?i)^issued\s*`)
)

type PatentInterpreter struct{}

func (PatentInterpreter) Parse(rec extract.Record) (profile.Patent, bool) {
	lines := rec.Texts
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "Patents") {
		return profile.Patent{}, false
	}
	for _, l := range lines {
		if strings.Contains(l, "adds will appear here") {
			return profile.Patent{}, false
		}
	}
	p := profile.Patent{Title: lines[0], PlainText: extract.PlainText(lines)}
	var desc []string
	meta := false
	for _, l := range lines[1:] {
		if !isPatentMetadata(l) {
			desc = append(desc, l)
			continue
		}
		if !meta {
			p.Issuer, p.Number, p.IssuedDate = parsePatentSubtitle(l)
			meta = true
		}
	}
	if len(desc) > 0 {
		p.Description = strings.Join(desc, "\n")
	}
	p.URL = patentURL(rec.Links)
	return p, true
}

func isPatentMetadata(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if containsFold(line, "issued") {
		return true
	}
	return patentIDRe.MatchString(line) && strings.ContainsAny(line, "0123456789")
}

// parsePatentSubtitle splits "US US10424882B2 · Issued Sep 24, 2019" into
// issuer, number and issue date.
func parsePatentSubtitle(line string) (issuer, number, issued string) {
	parts := splitDot(line)
	if id := parts[0]; id != "" {
		if strings.HasPrefix(fold(id), "issued") {
			issued = strings.TrimSpace(issuedPrefix.ReplaceAllString(id, ""))
		} else if m := issuerIDRe.FindStringSubmatch(id); m != nil {
			issuer, number = m[1], strings.TrimSpace(m[2])
		} else {
			number = id
		}
	}
	if len(parts) > 1 {
		issued = strings.TrimSpace(issuedPrefix.ReplaceAllString(parts[1], ""))
	}
	return issuer, number, issued
}

func patentURL(links []extract.Link) string {
	href := firstLinkWhere(links, func(l extract.Link) bool {
		return containsFold(l.Text, "show patent") || strings.Contains(l.URL, "patent")
	})
	if href == "" {
		return ""
	}
	return decodeRedirect(href)
}

// decodeRedirect unwraps ".../redir/redirect?url=<target>" links. The raw
// URL is kept when the target cannot be decoded.
func decodeRedirect(href string) string {
	if !strings.Contains(href, "/redir/redirect") {
		return href
	}
	m := redirectRe.FindStringSubmatch(href)
	if m == nil {
		return href
	}
	target, err := url.QueryUnescape(m[1])
	if err != nil || target == "" {
		return href
	}
	return target
}

func (PatentInterpreter) Validate(v profile.Patent) bool { return v.Title != "" }

func (PatentInterpreter) Confidence(v profile.Patent) float64 {
	return score(filled(v.Issuer, v.Number, v.IssuedDate, v.URL, v.Description, v.PlainText), 6)
}
