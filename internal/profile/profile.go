// Package profile holds the typed entities scraped from a profile.
package profile

// TopCard is the header card of a profile.
type TopCard struct {
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

type Education struct {
	InstitutionName string `json:"institutionName"`
	Degree          string `json:"degree,omitempty"`
	LinkedinURL     string `json:"linkedinUrl,omitempty"`
	FromDate        string `json:"fromDate,omitempty"`
	ToDate          string `json:"toDate,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Experience is one employer with at least one position.
type Experience struct {
	Company    string     `json:"company"`
	CompanyURL string     `json:"companyUrl,omitempty"`
	Positions  []Position `json:"positions"`
}

type Position struct {
	Title          string `json:"title"`
	EmploymentType string `json:"employmentType,omitempty"`
	FromDate       string `json:"fromDate,omitempty"`
	ToDate         string `json:"toDate,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Location       string `json:"location,omitempty"`
	Description    string `json:"description,omitempty"`
}

type Interest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
	PlainText   string `json:"plainText,omitempty"`
}

type Patent struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer,omitempty"`
	Number      string `json:"number,omitempty"`
	IssuedDate  string `json:"issuedDate,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	PlainText   string `json:"plainText,omitempty"`
}

type Accomplishment struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Issuer        string `json:"issuer,omitempty"`
	IssuedDate    string `json:"issuedDate,omitempty"`
	CredentialID  string `json:"credentialId,omitempty"`
	CredentialURL string `json:"credentialUrl,omitempty"`
}

// ContactType enumerates the contact kinds a profile can expose.
type ContactType string

const (
	ContactLinkedin ContactType = "linkedin"
	ContactEmail    ContactType = "email"
	ContactPhone    ContactType = "phone"
	ContactWebsite  ContactType = "website"
	ContactTwitter  ContactType = "twitter"
	ContactBirthday ContactType = "birthday"
	ContactAddress  ContactType = "address"
)

type Contact struct {
	Type  ContactType `json:"type"`
	Value string      `json:"value"`
	Label string      `json:"label,omitempty"`
}

// Person aggregates every section of one scraped profile.
type Person struct {
	URL             string           `json:"linkedinUrl"`
	Name            string           `json:"name,omitempty"`
	Headline        string           `json:"headline,omitempty"`
	Location        string           `json:"location,omitempty"`
	About           string           `json:"about,omitempty"`
	Experiences     []Experience     `json:"experiences"`
	Educations      []Education      `json:"educations"`
	Patents         []Patent         `json:"patents"`
	Interests       []Interest       `json:"interests"`
	Accomplishments []Accomplishment `json:"accomplishments"`
	Contacts        []Contact        `json:"contacts"`
}
