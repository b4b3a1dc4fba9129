package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/health"
	"github.com/hyperifyio/goprofile/internal/profile"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

// AllSections is the order Profile runs sections in.
var AllSections = []string{
	selectors.TopCard,
	selectors.About,
	selectors.Experience,
	selectors.Education,
	selectors.Patents,
	selectors.Interests,
	selectors.Accomplishments,
	selectors.Contact,
}

// ProfileRun is the outcome of a full-profile scrape.
type ProfileRun struct {
	Person   profile.Person `json:"person"`
	Sections []Section      `json:"sections"`
}

// Reports returns the health report of every section run.
func (r ProfileRun) Reports() []health.Report {
	out := make([]health.Report, 0, len(r.Sections))
	for _, s := range r.Sections {
		out = append(out, s.Health)
	}
	return out
}

// Usable reports whether at least one section was not broken.
func (r ProfileRun) Usable() bool {
	for _, s := range r.Sections {
		if s.Health.Status != health.Broken {
			return true
		}
	}
	return false
}

// Profile opens the profile page and runs the configured sections in order.
// A section that fails never stops the run; only an unreachable profile page
// is an error.
func (s *Scraper) Profile(ctx context.Context) (ProfileRun, error) {
	if s.nav == nil || s.url == "" {
		return ProfileRun{}, errors.New("scrape: profile url and navigator are required")
	}
	names, err := s.sections()
	if err != nil {
		return ProfileRun{}, err
	}
	main, err := s.nav.Open(ctx, s.url)
	if err != nil {
		return ProfileRun{}, fmt.Errorf("open profile: %w", err)
	}
	run := ProfileRun{Person: profile.Person{
		URL:             s.url,
		Experiences:     []profile.Experience{},
		Educations:      []profile.Education{},
		Patents:         []profile.Patent{},
		Interests:       []profile.Interest{},
		Accomplishments: []profile.Accomplishment{},
		Contacts:        []profile.Contact{},
	}}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		sec, err := s.ExtractSection(ctx, name, main)
		if err != nil {
			return run, err
		}
		assign(&run.Person, sec)
		run.Sections = append(run.Sections, sec)
		log.Ctx(ctx).Info().
			Str("section", name).
			Str("status", string(sec.Health.Status)).
			Int("items", sec.Health.ItemCount).
			Float64("confidence", sec.Health.Confidence).
			Msg(sec.Health.Message)
	}
	return run, nil
}

func (s *Scraper) sections() ([]string, error) {
	if len(s.opts.Sections) == 0 {
		return AllSections, nil
	}
	known := map[string]bool{}
	for _, n := range AllSections {
		known[n] = true
	}
	var out []string
	for _, n := range s.opts.Sections {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !known[n] {
			return nil, fmt.Errorf("unknown section %q", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func assign(p *profile.Person, sec Section) {
	switch items := sec.Items.(type) {
	case []profile.TopCard:
		if len(items) > 0 {
			p.Name = items[0].Name
			p.Headline = items[0].Headline
			p.Location = items[0].Origin
		}
	case []string:
		if len(items) > 0 {
			p.About = items[0]
		}
	case []profile.Experience:
		p.Experiences = items
	case []profile.Education:
		p.Educations = items
	case []profile.Patent:
		p.Patents = items
	case []profile.Interest:
		p.Interests = items
	case []profile.Accomplishment:
		p.Accomplishments = items
	case []profile.Contact:
		p.Contacts = items
	}
}
