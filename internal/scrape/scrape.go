// Package scrape is the facade over region location, the strategy pipeline
// and health reporting. It exposes one typed method per profile section and a
// full-profile run.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/extract"
	"github.com/hyperifyio/goprofile/internal/health"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/parse"
	"github.com/hyperifyio/goprofile/internal/pipeline"
	"github.com/hyperifyio/goprofile/internal/profile"
	"github.com/hyperifyio/goprofile/internal/regions"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

// SampleStore persists failure HTML samples for offline selector repair.
type SampleStore interface {
	SaveFailureSample(section, html string) (string, error)
}

// Options configure a Scraper.
type Options struct {
	ConfidenceThreshold  float64
	CaptureHTMLOnFailure bool
	AttemptTimeout       time.Duration
	FailureSampleLimit   int
	// Extract is passed to every strategy; SubItemSelector is taken from the
	// selector table per section.
	Extract    extract.Options
	Thresholds health.Thresholds
	// Sections restricts Profile to the named sections. Empty means all.
	Sections []string
	Samples  SampleStore
	Recorder *health.Recorder
}

// DefaultOptions returns options matching pipeline and health defaults.
func DefaultOptions() Options {
	po := pipeline.DefaultOptions("")
	return Options{
		ConfidenceThreshold:  po.ConfidenceThreshold,
		CaptureHTMLOnFailure: po.CaptureHTMLOnFailure,
		AttemptTimeout:       po.AttemptTimeout,
		FailureSampleLimit:   po.FailureSampleLimit,
		Extract:              extract.Options{SiteHost: "linkedin.com"},
		Thresholds:           health.DefaultThresholds(),
	}
}

// Scraper runs sections of one profile.
type Scraper struct {
	regions *regions.Extractor
	nav     page.Navigator
	url     string
	opts    Options
}

// New returns a Scraper over an existing region extractor. Profile is not
// available without a navigator; use ForProfile for full runs.
func New(x *regions.Extractor, opts Options) *Scraper {
	return &Scraper{regions: x, opts: opts}
}

// ForProfile returns a Scraper for the profile at url, opening the main and
// details pages through nav.
func ForProfile(table selectors.Table, nav page.Navigator, url string, opts Options) *Scraper {
	return &Scraper{regions: regions.New(table, nav, url), nav: nav, url: url, opts: opts}
}

// Section is the untyped outcome of one section, as returned by
// ExtractSection.
type Section struct {
	Name        string               `json:"section"`
	Items       any                  `json:"items"`
	Strategy    string               `json:"strategy,omitempty"`
	Confidence  float64              `json:"confidence"`
	Diagnostics pipeline.Diagnostics `json:"diagnostics"`
	Health      health.Report        `json:"health"`
}

func (s *Scraper) pipelineOptions(section string) pipeline.Options {
	return pipeline.Options{
		Section:              section,
		ConfidenceThreshold:  s.opts.ConfidenceThreshold,
		CaptureHTMLOnFailure: s.opts.CaptureHTMLOnFailure,
		AttemptTimeout:       s.opts.AttemptTimeout,
		FailureSampleLimit:   s.opts.FailureSampleLimit,
	}
}

func (s *Scraper) strategies(section string) []extract.Strategy {
	eo := s.opts.Extract
	if sec, ok := s.regions.Table().Lookup(section); ok {
		eo.SubItemSelector = sec.SubItems
	}
	return extract.DefaultStrategies(eo)
}

// run locates the section regions and feeds them through the pipeline.
func run[T any](ctx context.Context, s *Scraper, section string, d page.Driver, interp parse.Interpreter[T]) pipeline.Result[T] {
	e, err := s.regions.Extract(ctx, section, d)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("section", section).Msg("region lookup failed")
		return pipeline.New(nil, interp, s.pipelineOptions(section)).Extract(ctx, nil, nil)
	}
	p := pipeline.New(s.strategies(section), interp, s.pipelineOptions(section))
	return p.Extract(ctx, e.Driver, e.Items)
}

func (s *Scraper) TopCard(ctx context.Context, d page.Driver) pipeline.Result[profile.TopCard] {
	return run[profile.TopCard](ctx, s, selectors.TopCard, d, parse.TopCardInterpreter{})
}

func (s *Scraper) About(ctx context.Context, d page.Driver) pipeline.Result[string] {
	return run[string](ctx, s, selectors.About, d, parse.AboutInterpreter{})
}

func (s *Scraper) Experiences(ctx context.Context, d page.Driver) pipeline.Result[profile.Experience] {
	interp := parse.ExperienceInterpreter{}
	res := run[profile.Experience](ctx, s, selectors.Experience, d, interp)
	return pipeline.Deduplicate(res, interp, parse.ExperienceKey)
}

func (s *Scraper) Educations(ctx context.Context, d page.Driver) pipeline.Result[profile.Education] {
	interp := parse.EducationInterpreter{}
	res := run[profile.Education](ctx, s, selectors.Education, d, interp)
	return pipeline.Deduplicate(res, interp, parse.EducationKey)
}

func (s *Scraper) Patents(ctx context.Context, d page.Driver) pipeline.Result[profile.Patent] {
	interp := parse.PatentInterpreter{}
	res := run[profile.Patent](ctx, s, selectors.Patents, d, interp)
	return pipeline.Deduplicate(res, interp, parse.PatentKey)
}

func (s *Scraper) Interests(ctx context.Context, d page.Driver) pipeline.Result[profile.Interest] {
	interp := parse.InterestInterpreter{}
	res := run[profile.Interest](ctx, s, selectors.Interests, d, interp)
	return pipeline.Deduplicate(res, interp, parse.InterestKey)
}

func (s *Scraper) Accomplishments(ctx context.Context, d page.Driver) pipeline.Result[profile.Accomplishment] {
	interp := parse.AccomplishmentInterpreter{}
	res := run[profile.Accomplishment](ctx, s, selectors.Accomplishments, d, interp)
	return pipeline.Deduplicate(res, interp, parse.AccomplishmentKey)
}

// ContactSource names the result of reading the contact dialog blocks
// directly.
const ContactSource = "contact-dialog"

// Contacts reads the contact dialog blocks directly and falls back to the
// strategy pipeline over the block containers when that yields nothing.
func (s *Scraper) Contacts(ctx context.Context, d page.Driver) pipeline.Result[profile.Contact] {
	interp := parse.ContactInterpreter{}
	e, err := s.regions.Extract(ctx, selectors.Contact, d)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("section", selectors.Contact).Msg("region lookup failed")
		return pipeline.Collect(ContactSource, nil, interp)
	}
	if res := pipeline.Collect(ContactSource, interp.ParseRaw(e.Raw), interp); len(res.Items) > 0 {
		return res
	}
	p := pipeline.New(s.strategies(selectors.Contact), interp, s.pipelineOptions(selectors.Contact))
	return pipeline.Deduplicate(p.Extract(ctx, e.Driver, e.Items), interp, parse.ContactKey)
}

// ExtractSection runs one section by name and reports on it.
func (s *Scraper) ExtractSection(ctx context.Context, name string, d page.Driver) (Section, error) {
	switch name {
	case selectors.TopCard:
		return section(ctx, s, name, s.TopCard(ctx, d)), nil
	case selectors.About:
		return section(ctx, s, name, s.About(ctx, d)), nil
	case selectors.Experience:
		return section(ctx, s, name, s.Experiences(ctx, d)), nil
	case selectors.Education:
		return section(ctx, s, name, s.Educations(ctx, d)), nil
	case selectors.Patents:
		return section(ctx, s, name, s.Patents(ctx, d)), nil
	case selectors.Interests:
		return section(ctx, s, name, s.Interests(ctx, d)), nil
	case selectors.Accomplishments:
		return section(ctx, s, name, s.Accomplishments(ctx, d)), nil
	case selectors.Contact:
		return section(ctx, s, name, s.Contacts(ctx, d)), nil
	}
	return Section{}, fmt.Errorf("unknown section %q", name)
}

// HealthOf reports on a typed result with the scraper's thresholds.
func HealthOf[T any](s *Scraper, section string, res pipeline.Result[T]) health.Report {
	return health.Of(section, res, s.opts.Thresholds)
}

func section[T any](ctx context.Context, s *Scraper, name string, res pipeline.Result[T]) Section {
	rep := HealthOf(s, name, res)
	if s.opts.Recorder != nil {
		s.opts.Recorder.Observe(rep)
	}
	s.saveSample(ctx, name, res.Diagnostics.FailureHTMLSample)
	return Section{
		Name:        name,
		Items:       res.Items,
		Strategy:    res.Strategy,
		Confidence:  res.Confidence,
		Diagnostics: res.Diagnostics,
		Health:      rep,
	}
}

func (s *Scraper) saveSample(ctx context.Context, section, html string) {
	if s.opts.Samples == nil || html == "" {
		return
	}
	path, err := s.opts.Samples.SaveFailureSample(section, html)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("section", section).Msg("save failure sample")
		return
	}
	log.Ctx(ctx).Info().Str("section", section).Str("path", path).Msg("failure sample saved")
}
