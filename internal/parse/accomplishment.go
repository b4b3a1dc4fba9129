package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

const maxAccomplishmentTitle = 200

var (
	issuedByRe   = regexp.MustCompile(`(?i)^issued by\s+(.+)$`)
	issuedOnRe   = regexp.MustCompile(`(?i)^issued\s+(.+)$`)
	credentialRe = regexp.MustCompile(`(?i)^credential id\s*:?\s*(.+)$`)
)

// AccomplishmentInterpreter reads certifications, honors, publications and
// the other accomplishment lists. The category comes from the record
// context.
type AccomplishmentInterpreter struct{}

func (AccomplishmentInterpreter) Parse(rec extract.Record) (profile.Accomplishment, bool) {
	title := rec.Line(0)
	if title == "" || utf8.RuneCountInString(title) > maxAccomplishmentTitle {
		return profile.Accomplishment{}, false
	}
	a := profile.Accomplishment{Title: title, Category: rec.Ctx("category")}
	if a.Category == "" {
		a.Category = "other"
	}
	for i := 1; i < len(rec.Texts); i++ {
		line := rec.Texts[i]
		if m := issuedByRe.FindStringSubmatch(line); m != nil {
			parts := splitDot(m[1])
			a.Issuer = parts[0]
			if len(parts) > 1 && parts[1] != "" {
				a.IssuedDate = parts[1]
			}
			continue
		}
		if m := credentialRe.FindStringSubmatch(line); m != nil {
			a.CredentialID = strings.TrimSpace(m[1])
			continue
		}
		if m := issuedOnRe.FindStringSubmatch(line); m != nil {
			a.IssuedDate = strings.TrimSpace(m[1])
			continue
		}
		if a.IssuedDate == "" && looksLikeDate(line) {
			a.IssuedDate = line
			continue
		}
		if a.Issuer == "" && i == 1 {
			a.Issuer = line
		}
	}
	a.CredentialURL = firstLinkWhere(rec.Links, func(l extract.Link) bool {
		u := fold(l.URL)
		return strings.Contains(u, "credential") || strings.Contains(u, "verify")
	})
	return a, true
}

func (AccomplishmentInterpreter) Validate(v profile.Accomplishment) bool {
	return v.Title != "" && v.Category != "" && utf8.RuneCountInString(v.Title) <= maxAccomplishmentTitle
}

func (AccomplishmentInterpreter) Confidence(v profile.Accomplishment) float64 {
	return score(filled(v.Issuer, v.IssuedDate, v.CredentialID, v.CredentialURL), 4)
}
