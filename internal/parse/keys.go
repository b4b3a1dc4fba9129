package parse

import "github.com/hyperifyio/goprofile/internal/profile"

// Deduplication keys per entity kind.

func ExperienceKey(e profile.Experience) string {
	first := ""
	if len(e.Positions) > 0 {
		first = e.Positions[0].Title
	}
	return e.Company + "|" + first
}

func EducationKey(e profile.Education) string { return e.InstitutionName + "|" + e.Degree }

func PatentKey(p profile.Patent) string { return p.Title + "|" + p.Number }

func InterestKey(i profile.Interest) string { return i.Category + "|" + i.Name }

func AccomplishmentKey(a profile.Accomplishment) string { return a.Category + "|" + a.Title }

func ContactKey(c profile.Contact) string { return string(c.Type) + "|" + c.Value }
