package parse

import (
	"strings"
)

// DateRange is a parsed "from - to · duration" string. Empty fields mean
// the value was absent.
type DateRange struct {
	From     string
	To       string
	Duration string
}

// Present is the normalized value for open-ended ranges.
const Present = "Present"

// ParseDateRange parses strings like "Jan 2020 - Present · 4 yrs". The
// duration is only populated when withDuration is set. A range without a
// separator is a single point: education ranges reuse it for both ends,
// experience ranges do so only for a single token such as a bare year.
func ParseDateRange(s string, withDuration bool) DateRange {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateRange{}
	}
	left, right, hasDot := strings.Cut(s, "·")
	left = strings.TrimSpace(strings.ReplaceAll(left, " – ", " - "))

	var dr DateRange
	if withDuration && hasDot {
		dr.Duration = strings.TrimSpace(right)
	}
	// "2020 -" is a range whose end was dropped.
	if from, ok := cutDanglingDash(left); ok {
		dr.From = from
		return dr
	}
	if from, to, ok := strings.Cut(left, " - "); ok {
		dr.From = strings.TrimSpace(from)
		dr.To = normalizeEnd(strings.TrimSpace(to))
		return dr
	}
	dr.From = left
	if !withDuration || !strings.ContainsAny(left, " \t") {
		dr.To = left
	}
	return dr
}

func normalizeEnd(to string) string {
	switch fold(to) {
	case "current", "now", "ongoing", "present":
		return Present
	}
	return to
}

func cutDanglingDash(s string) (string, bool) {
	trimmed := strings.TrimRight(s, " -–")
	if trimmed == s || trimmed == "" {
		return s, false
	}
	return trimmed, true
}
