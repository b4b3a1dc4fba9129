package parse

import (
	"strings"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/profile"
)

// ExperienceInterpreter reads single-position records (title, company line,
// dates, location, description) and multi-position records where the top
// level names the company and every sub item is one position.
type ExperienceInterpreter struct{}

func (ExperienceInterpreter) Parse(rec extract.Record) (profile.Experience, bool) {
	companyURL := firstLinkWhere(rec.Links, func(l extract.Link) bool {
		return !l.External && strings.Contains(l.URL, "/company/")
	})
	if len(rec.SubItems) > 0 {
		company := companyName(rec.Line(0))
		if company == "" {
			return profile.Experience{}, false
		}
		var positions []profile.Position
		for _, sub := range rec.SubItems {
			title := sub.Line(0)
			if title == "" {
				continue
			}
			p := profile.Position{Title: title}
			fillPosition(&p, sub.Texts[1:])
			positions = append(positions, p)
		}
		if len(positions) == 0 {
			return profile.Experience{}, false
		}
		return profile.Experience{Company: company, CompanyURL: companyURL, Positions: positions}, true
	}

	title := rec.Line(0)
	parts := splitDot(rec.Line(1))
	company := parts[0]
	if title == "" || company == "" {
		return profile.Experience{}, false
	}
	p := profile.Position{Title: title}
	if len(parts) > 1 && parts[1] != "" {
		p.EmploymentType = parts[1]
	}
	if len(rec.Texts) > 2 {
		fillPosition(&p, rec.Texts[2:])
	}
	return profile.Experience{Company: company, CompanyURL: companyURL, Positions: []profile.Position{p}}, true
}

// companyName drops a trailing "· Full-time · 3 yrs" summary from the
// company line of a grouped entry.
func companyName(line string) string {
	return splitDot(line)[0]
}

// fillPosition classifies the lines following a position title: the first
// date-shaped line is the range, the line right after it is the location,
// a bare employment type fills that field, and the rest is description.
func fillPosition(p *profile.Position, lines []string) {
	var desc []string
	dateIdx := -1
	for i, line := range lines {
		switch {
		case dateIdx < 0 && looksLikeDate(line):
			dr := ParseDateRange(line, true)
			p.FromDate, p.ToDate, p.Duration = dr.From, dr.To, dr.Duration
			dateIdx = i
		case p.EmploymentType == "" && isEmploymentType(splitDot(line)[0]):
			p.EmploymentType = splitDot(line)[0]
		case dateIdx >= 0 && i == dateIdx+1 && p.Location == "" && len(line) <= 120:
			p.Location = line
		default:
			desc = append(desc, line)
		}
	}
	if len(desc) > 0 {
		p.Description = strings.Join(desc, "\n")
	}
}

func (ExperienceInterpreter) Validate(v profile.Experience) bool {
	if v.Company == "" || len(v.Positions) == 0 {
		return false
	}
	for _, p := range v.Positions {
		if p.Title == "" {
			return false
		}
	}
	return true
}

func (ExperienceInterpreter) Confidence(v profile.Experience) float64 {
	if len(v.Positions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range v.Positions {
		sum += score(filled(p.EmploymentType, p.FromDate, p.ToDate, p.Duration, p.Location, p.Description), 6)
	}
	return sum / float64(len(v.Positions))
}
