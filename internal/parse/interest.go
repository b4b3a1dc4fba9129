package parse

import (
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

// MapInterestCategory maps an interests tab label onto the fixed category
// vocabulary. Unknown labels are returned lowercased.
func MapInterestCategory(tab string) string {
	t := fold(strings.TrimSpace(tab))
	switch {
	case strings.Contains(t, "compan"):
		return "company"
	case strings.Contains(t, "group"):
		return "group"
	case strings.Contains(t, "school"):
		return "school"
	case strings.Contains(t, "newsletter"):
		return "newsletter"
	case strings.Contains(t, "voice"), strings.Contains(t, "influencer"):
		return "influencer"
	}
	return t
}

// InterestInterpreter requires a name and at least one link to the
// followed entity.
type InterestInterpreter struct{}

func (InterestInterpreter) Parse(rec extract.Record) (profile.Interest, bool) {
	name := rec.Line(0)
	if name == "" {
		return profile.Interest{}, false
	}
	anyLink := firstLinkWhere(rec.Links, func(extract.Link) bool { return true })
	if anyLink == "" {
		return profile.Interest{}, false
	}
	category := MapInterestCategory(rec.Ctx("category"))
	if category == "" {
		category = "other"
	}
	return profile.Interest{
		Name:        name,
		Category:    category,
		LinkedinURL: firstInternalLink(rec.Links),
		PlainText:   extract.PlainText(rec.Texts),
	}, true
}

func (InterestInterpreter) Validate(v profile.Interest) bool {
	return v.Name != "" && v.Category != ""
}

func (InterestInterpreter) Confidence(v profile.Interest) float64 {
	return score(filled(v.LinkedinURL, v.PlainText), 2)
}
