package parse

import "testing"

func TestParseDateRange(t *testing.T) {
	cases := []struct {
		in           string
		withDuration bool
		want         DateRange
	}{
		{"Jan 2020 - Present · 4 yrs", true, DateRange{"Jan 2020", "Present", "4 yrs"}},
		{"Jan 2020 - Dec 2021 · 2 yrs", false, DateRange{"Jan 2020", "Dec 2021", ""}},
		{"2014 - 2018", false, DateRange{"2014", "2018", ""}},
		{"2020", false, DateRange{"2020", "2020", ""}},
		{"2020", true, DateRange{"2020", "2020", ""}},
		{"", true, DateRange{}},
		{"   ", false, DateRange{}},
		{"Jan 2020", true, DateRange{"Jan 2020", "", ""}},
		{"Not a date", false, DateRange{"Not a date", "Not a date", ""}},
		{"Jan 2020 - Present ·  ", true, DateRange{"Jan 2020", "Present", ""}},
		{"Mar 2019 - current", true, DateRange{"Mar 2019", "Present", ""}},
		{"2019 - NOW", false, DateRange{"2019", "Present", ""}},
		{"2019 – Ongoing", false, DateRange{"2019", "Present", ""}},
		{"2020 - ", true, DateRange{"2020", "", ""}},
		{"Jan 2020 – · 1 yr", true, DateRange{"Jan 2020", "", "1 yr"}},
		{"2020 -", false, DateRange{"2020", "", ""}},
	}
	for _, c := range cases {
		if got := ParseDateRange(c.in, c.withDuration); got != c.want {
			t.Fatalf("ParseDateRange(%q, %v) = %+v, want %+v", c.in, c.withDuration, got, c.want)
		}
	}
}

func TestParseDateRange_FromToRoundTrip(t *testing.T) {
	pairs := [][2]string{{"Jan 2020", "Feb 2021"}, {"2001", "2004"}, {"Sep 2015", "Present"}}
	for _, p := range pairs {
		got := ParseDateRange(p[0]+" - "+p[1], true)
		if got.From != p[0] || got.To != p[1] {
			t.Fatalf("range %q - %q parsed as %+v", p[0], p[1], got)
		}
	}
}
