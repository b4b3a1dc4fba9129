package parse

import (
	"math"
	"reflect"
	"testing"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/profile"
)

var (
	_ Interpreter[profile.TopCard]        = TopCardInterpreter{}
	_ Interpreter[string]                 = AboutInterpreter{}
	_ Interpreter[profile.Education]      = EducationInterpreter{}
	_ Interpreter[profile.Experience]     = ExperienceInterpreter{}
	_ Interpreter[profile.Interest]       = InterestInterpreter{}
	_ Interpreter[profile.Patent]         = PatentInterpreter{}
	_ Interpreter[profile.Accomplishment] = AccomplishmentInterpreter{}
	_ Interpreter[profile.Contact]        = ContactInterpreter{}
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExperience_SinglePosition(t *testing.T) {
	ip := ExperienceInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts: []string{
			"Senior Engineer",
			"Example Corp · Full-time",
			"Jan 2020 - Present · 4 yrs",
			"Austin, Texas, United States",
			"Built core platform systems.",
		},
		Links: []extract.Link{{URL: "https://www.linkedin.com/company/example/"}},
	})
	if !ok {
		t.Fatalf("expected experience")
	}
	want := profile.Experience{
		Company:    "Example Corp",
		CompanyURL: "https://www.linkedin.com/company/example/",
		Positions: []profile.Position{{
			Title:          "Senior Engineer",
			EmploymentType: "Full-time",
			FromDate:       "Jan 2020",
			ToDate:         "Present",
			Duration:       "4 yrs",
			Location:       "Austin, Texas, United States",
			Description:    "Built core platform systems.",
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	if !ip.Validate(got) || !near(ip.Confidence(got), 1) {
		t.Fatalf("expected valid full-confidence parse, got %.3f", ip.Confidence(got))
	}
}

func TestExperience_MultiPosition(t *testing.T) {
	ip := ExperienceInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts: []string{"Example Corp"},
		SubItems: []extract.Record{
			{Texts: []string{"Staff Engineer", "Jan 2022 - Present · 2 yrs", "Remote"}},
			{Texts: []string{"Senior Engineer", "Full-time", "Jan 2019 - Dec 2021 · 3 yrs"}},
		},
	})
	if !ok || got.Company != "Example Corp" || len(got.Positions) != 2 {
		t.Fatalf("unexpected parse %+v", got)
	}
	p0 := got.Positions[0]
	if p0.Title != "Staff Engineer" || p0.FromDate != "Jan 2022" || p0.Duration != "2 yrs" || p0.Location != "Remote" {
		t.Fatalf("unexpected first position %+v", p0)
	}
	if got.Positions[1].EmploymentType != "Full-time" || got.Positions[1].ToDate != "Dec 2021" {
		t.Fatalf("unexpected second position %+v", got.Positions[1])
	}
	if !ip.Validate(got) {
		t.Fatalf("expected valid")
	}
}

func TestExperience_Rejects(t *testing.T) {
	ip := ExperienceInterpreter{}
	for _, rec := range []extract.Record{
		{},
		{Texts: []string{"Only a title"}},
		{Texts: []string{"Example Corp"}, SubItems: []extract.Record{{}}},
	} {
		if _, ok := ip.Parse(rec); ok {
			t.Fatalf("expected rejection for %+v", rec)
		}
	}
}

func TestEducation(t *testing.T) {
	ip := EducationInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts: []string{"State University", "B.S. Computer Science", "2014 - 2018"},
		Links: []extract.Link{{URL: "https://linkedin.com/school/state-u"}},
	})
	want := profile.Education{
		InstitutionName: "State University",
		Degree:          "B.S. Computer Science",
		LinkedinURL:     "https://linkedin.com/school/state-u",
		FromDate:        "2014",
		ToDate:          "2018",
	}
	if !ok || got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if !near(ip.Confidence(got), 0.9) {
		t.Fatalf("unexpected confidence %.3f", ip.Confidence(got))
	}

	cases := []struct {
		second string
		degree string
		from   string
	}{
		{"2010 - 2012", "", "2010"},
		{"PhD", "PhD", ""},
	}
	for _, c := range cases {
		e, _ := ip.Parse(extract.Record{Texts: []string{"MIT", c.second}})
		if e.Degree != c.degree || e.FromDate != c.from {
			t.Fatalf("second line %q parsed as %+v", c.second, e)
		}
	}

	e, _ := ip.Parse(extract.Record{Texts: []string{"MIT", "MSc", "2010 - 2012", "Thesis on graphs", "Grade: A"}})
	if e.Description != "Thesis on graphs\nGrade: A" {
		t.Fatalf("unexpected description %q", e.Description)
	}
	if _, ok := ip.Parse(extract.Record{}); ok {
		t.Fatalf("expected rejection without institution")
	}
}

func TestPatent(t *testing.T) {
	ip := PatentInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts: []string{
			"Distributed Data Processing System",
			"US US10424882B2 · Issued Sep 24, 2019",
			"Improves distributed query execution.",
		},
		Links: []extract.Link{{
			URL:  "https://www.linkedin.com/redir/redirect?url=https%3A%2F%2Fpatents.example.test%2Fabc",
			Text: "Show patent",
		}},
	})
	if !ok {
		t.Fatalf("expected patent")
	}
	if got.Issuer != "US" || got.Number != "US10424882B2" || got.IssuedDate != "Sep 24, 2019" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if got.URL != "https://patents.example.test/abc" {
		t.Fatalf("unexpected url %q", got.URL)
	}
	if got.Description != "Improves distributed query execution." {
		t.Fatalf("unexpected description %q", got.Description)
	}
	if !ip.Validate(got) || !near(ip.Confidence(got), 1) {
		t.Fatalf("expected valid full-confidence patent")
	}
}

func TestPatent_MetadataVariants(t *testing.T) {
	cases := []struct {
		line                   string
		issuer, number, issued string
	}{
		{"US 9,349,265", "US", "9,349,265", ""},
		{"Issued Nov 11, 2014", "", "", "Nov 11, 2014"},
		{"WO2019123 · 2019", "", "WO2019123", "2019"},
	}
	for _, c := range cases {
		i, n, d := parsePatentSubtitle(c.line)
		if i != c.issuer || n != c.number || d != c.issued {
			t.Fatalf("parsePatentSubtitle(%q) = %q %q %q", c.line, i, n, d)
		}
	}
}

func TestIsPatentMetadata(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"US US10424882B2 · Issued Sep 24, 2019", true},
		{"Issued Nov 11, 2014", true},
		{"Reissued Mar 3, 2020", true},
		{"US 9,349,265", true},
		{"US PATENT", false},
		{"Improves distributed query execution.", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isPatentMetadata(c.line); got != c.want {
			t.Fatalf("isPatentMetadata(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestPatent_RejectsEmptyStates(t *testing.T) {
	ip := PatentInterpreter{}
	for _, texts := range [][]string{
		{"Patents"},
		{"Patents", "Patents you've filed or issued adds will appear here"},
		nil,
	} {
		if _, ok := ip.Parse(extract.Record{Texts: texts}); ok {
			t.Fatalf("expected rejection for %q", texts)
		}
	}
}

func TestDecodeRedirect_FallsBackOnBadEscape(t *testing.T) {
	raw := "https://www.linkedin.com/redir/redirect?url=%zz"
	if got := decodeRedirect(raw); got != raw {
		t.Fatalf("expected raw url back, got %q", got)
	}
}

func TestAccomplishment(t *testing.T) {
	ip := AccomplishmentInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts:   []string{"AWS Certified Developer", "Issued by Amazon Web Services · Jan 2024", "Credential ID ABC-123"},
		Links:   []extract.Link{{URL: "https://example.test/verify", Text: "verify", External: true}},
		Context: map[string]string{"category": "certification"},
	})
	want := profile.Accomplishment{
		Category:      "certification",
		Title:         "AWS Certified Developer",
		Issuer:        "Amazon Web Services",
		IssuedDate:    "Jan 2024",
		CredentialID:  "ABC-123",
		CredentialURL: "https://example.test/verify",
	}
	if !ok || got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if !ip.Validate(got) {
		t.Fatalf("expected valid")
	}
}

func TestAccomplishment_LineClassification(t *testing.T) {
	ip := AccomplishmentInterpreter{}
	a, _ := ip.Parse(extract.Record{Texts: []string{"Best Paper Award", "IEEE", "Mar 2021"}, Context: map[string]string{"category": "honor"}})
	if a.Issuer != "IEEE" || a.IssuedDate != "Mar 2021" {
		t.Fatalf("unexpected %+v", a)
	}
	b, _ := ip.Parse(extract.Record{Texts: []string{"Go Course", "2019"}})
	if b.Issuer != "" || b.IssuedDate != "2019" || b.Category != "other" {
		t.Fatalf("unexpected %+v", b)
	}
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	if _, ok := ip.Parse(extract.Record{Texts: []string{string(long)}}); ok {
		t.Fatalf("expected overlong title to be rejected")
	}
}

func TestInterest(t *testing.T) {
	ip := InterestInterpreter{}
	got, ok := ip.Parse(extract.Record{
		Texts:   []string{"Example Company"},
		Links:   []extract.Link{{URL: "https://www.linkedin.com/company/example"}},
		Context: map[string]string{"category": "Companies"},
	})
	if !ok || got.Name != "Example Company" || got.Category != "company" || got.LinkedinURL != "https://www.linkedin.com/company/example" {
		t.Fatalf("unexpected %+v", got)
	}
	if !ip.Validate(got) {
		t.Fatalf("expected valid")
	}
	if _, ok := ip.Parse(extract.Record{Texts: []string{"No link"}}); ok {
		t.Fatalf("expected rejection without link")
	}
}

func TestMapInterestCategory(t *testing.T) {
	cases := map[string]string{
		"Companies":   "company",
		"Groups":      "group",
		"Schools":     "school",
		"Newsletters": "newsletter",
		"Top Voices":  "influencer",
		"Influencers": "influencer",
		"Podcasts":    "podcasts",
	}
	for in, want := range cases {
		if got := MapInterestCategory(in); got != want {
			t.Fatalf("MapInterestCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTopCardAndAbout(t *testing.T) {
	tc, ok := TopCardInterpreter{}.Parse(extract.Record{Texts: []string{"Alex Doe", "Founder", "Austin, Texas, United States Contact info"}})
	want := profile.TopCard{Name: "Alex Doe", Headline: "Founder", Origin: "Austin, Texas, United States"}
	if !ok || tc != want {
		t.Fatalf("got %+v want %+v", tc, want)
	}
	if !(TopCardInterpreter{}).Validate(tc) {
		t.Fatalf("expected valid top card")
	}
	about, ok := AboutInterpreter{}.Parse(extract.Record{Texts: []string{"About", "Building resilient data systems.", "Mentoring teams."}})
	if !ok || about != "Building resilient data systems.\nMentoring teams." {
		t.Fatalf("unexpected about %q", about)
	}
	if _, ok := (AboutInterpreter{}).Parse(extract.Record{Texts: []string{"About"}}); ok {
		t.Fatalf("expected heading-only about to be rejected")
	}
}

func TestContact_ParseRaw(t *testing.T) {
	sections := []extract.RawSection{
		{
			Heading: "Email",
			Text:    "Email",
			Anchors: []page.Anchor{
				{Href: "mailto:test@example.com", Text: "test@example.com"},
				{Href: "mailto:test@example.com", Text: "test@example.com"},
			},
		},
		{Heading: "Profile", Text: "Profile", Anchors: []page.Anchor{{Href: "https://www.linkedin.com/in/sample", Text: "Profile"}}},
		{Heading: "Phone", Text: "Phone: +1 (555) 123-4567"},
		{Heading: "email", Anchors: []page.Anchor{{Href: "mailto:test@example.com"}}},
	}
	got := ContactInterpreter{}.ParseRaw(sections)
	want := []profile.Contact{
		{Type: profile.ContactEmail, Value: "test@example.com"},
		{Type: profile.ContactLinkedin, Value: "https://www.linkedin.com/in/sample"},
		{Type: profile.ContactPhone, Value: "+1 (555) 123-4567"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestContact_WebsitesAndLabels(t *testing.T) {
	sections := []extract.RawSection{
		{
			Heading: "website",
			Labels:  []string{"Personal", "Blog"},
			Anchors: []page.Anchor{
				{Href: "https://alex.example", Text: "alex.example"},
				{Href: "javascript:void(0)"},
				{Href: "https://blog.example", Text: "blog.example"},
			},
		},
		{Heading: "phone", Text: "Phone +1 555 0100 (Mobile)", Labels: []string{"Mobile"}},
		{Heading: "Connected", Text: "Connected Jan 2020"},
	}
	got := ContactInterpreter{}.ParseRaw(sections)
	want := []profile.Contact{
		{Type: profile.ContactWebsite, Value: "https://alex.example", Label: "Personal"},
		{Type: profile.ContactWebsite, Value: "https://blog.example", Label: "Blog"},
		{Type: profile.ContactPhone, Value: "+1 555 0100", Label: "Mobile"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	ip := ContactInterpreter{}
	if !ip.Validate(got[0]) || !near(ip.Confidence(got[0]), 1) || !near(ip.Confidence(profile.Contact{Type: "email", Value: "x"}), 0.5) {
		t.Fatalf("unexpected contact scoring")
	}
}

func TestKeys(t *testing.T) {
	e := profile.Experience{Company: "Acme", Positions: []profile.Position{{Title: "Dev"}}}
	if ExperienceKey(e) != "Acme|Dev" || ExperienceKey(profile.Experience{Company: "Acme"}) != "Acme|" {
		t.Fatalf("unexpected experience key")
	}
	if ContactKey(profile.Contact{Type: profile.ContactEmail, Value: "a@b"}) != "email|a@b" {
		t.Fatalf("unexpected contact key")
	}
}
