package parse

import (
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

type EducationInterpreter struct{}

func (EducationInterpreter) Parse(rec extract.Record) (profile.Education, bool) {
	inst := rec.Line(0)
	if inst == "" {
		return profile.Education{}, false
	}
	e := profile.Education{InstitutionName: inst, LinkedinURL: firstInternalLink(rec.Links)}
	switch n := len(rec.Texts); {
	case n == 2:
		second := rec.Line(1)
		if strings.Contains(second, "-") || strings.ContainsAny(second, "0123456789") {
			setEducationDates(&e, second)
		} else {
			e.Degree = second
		}
	case n >= 3:
		e.Degree = rec.Line(1)
		setEducationDates(&e, rec.Line(2))
		if n > 3 {
			e.Description = strings.Join(rec.Texts[3:], "\n")
		}
	}
	return e, true
}

func setEducationDates(e *profile.Education, line string) {
	dr := ParseDateRange(line, false)
	e.FromDate, e.ToDate = dr.From, dr.To
}

func (EducationInterpreter) Validate(v profile.Education) bool { return v.InstitutionName != "" }

func (EducationInterpreter) Confidence(v profile.Education) float64 {
	return score(filled(v.Degree, v.LinkedinURL, v.FromDate, v.ToDate, v.Description), 5)
}
