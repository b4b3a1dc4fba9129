package parse

import (
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

type TopCardInterpreter struct{}

func (TopCardInterpreter) Parse(rec extract.Record) (profile.TopCard, bool) {
	name := rec.Line(0)
	if name == "" {
		return profile.TopCard{}, false
	}
	origin := strings.TrimSpace(rec.Line(2))
	if trimmed, ok := cutSuffixFold(origin, "contact info"); ok {
		origin = strings.TrimSpace(trimmed)
	}
	return profile.TopCard{Name: name, Headline: rec.Line(1), Origin: origin}, true
}

func (TopCardInterpreter) Validate(v profile.TopCard) bool { return v.Name != "" }

func (TopCardInterpreter) Confidence(v profile.TopCard) float64 {
	return score(filled(v.Headline, v.Origin), 2)
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) < len(suffix) {
		return s, false
	}
	if fold(s[len(s)-len(suffix):]) != fold(suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}

// AboutInterpreter yields the free-text summary with the section heading
// removed.
type AboutInterpreter struct{}

func (AboutInterpreter) Parse(rec extract.Record) (string, bool) {
	lines := rec.Texts
	if len(lines) > 0 && fold(lines[0]) == "about" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func (AboutInterpreter) Validate(v string) bool { return strings.TrimSpace(v) != "" }

func (AboutInterpreter) Confidence(string) float64 { return score(0, 0) }
