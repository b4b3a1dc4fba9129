package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/cache"
	"github.com/hyperifyio/goprofile/internal/fetch"
	"github.com/hyperifyio/goprofile/internal/health"
	"github.com/hyperifyio/goprofile/internal/page"
	"github.com/hyperifyio/goprofile/internal/pipeline"
	"github.com/hyperifyio/goprofile/internal/profile"
	"github.com/hyperifyio/goprofile/internal/scrape"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

// StdoutPath writes the profile document to standard output.
const StdoutPath = "-"

type App struct {
	cfg      Config
	table    selectors.Table
	pages    *cache.PageCache
	recorder *health.Recorder
	stdout   io.Writer
	// nav replaces the navigator picked from cfg when set.
	nav page.Navigator
}

// ErrNoSections is returned when every section of a run ended broken. Per the
// exit code policy this results in a non-zero process exit.
var ErrNoSections = errors.New("no usable sections")

func New(ctx context.Context, cfg Config) (*App, error) {
	table, err := selectors.Load(cfg.SelectorsFile)
	if err != nil {
		return nil, fmt.Errorf("load selectors: %w", err)
	}
	a := &App{cfg: cfg, table: table, recorder: health.NewRecorder(), stdout: os.Stdout}
	if cfg.CacheDir != "" {
		// Cache housekeeping never fails startup.
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			pages, _ := cache.PurgePagesByAge(cfg.CacheDir, cfg.CacheMaxAge)
			samples, _ := cache.PurgeSamplesByAge(cfg.CacheDir, cfg.CacheMaxAge)
			log.Debug().Int("pages", pages).Int("samples", samples).Msg("cache purged by age")
		}
		if cfg.CacheMaxBytes > 0 || cfg.CacheMaxCount > 0 {
			if n, err := cache.EnforcePageLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxCount); err == nil && n > 0 {
				log.Debug().Int("evicted", n).Msg("cache limits enforced")
			}
		}
		a.pages = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	return a, nil
}

// Recorder exposes the health metrics of the runs so far.
func (a *App) Recorder() *health.Recorder { return a.recorder }

// navigator picks saved pages when a pages directory is configured, else
// fetches over HTTP through the page cache.
func (a *App) navigator() (page.Navigator, string) {
	if a.nav != nil {
		return a.nav, "custom"
	}
	if a.cfg.PagesDir != "" {
		return page.DirNavigator{Dir: a.cfg.PagesDir, Base: a.cfg.ProfileURL}, "dir"
	}
	attempts := a.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	client := &fetch.Client{
		HTTPClient:        newProfileHTTPClient(a.cfg.SSLVerify),
		UserAgent:         a.cfg.UserAgent,
		SessionCookie:     a.cfg.SessionCookie,
		MaxAttempts:       attempts,
		PerRequestTimeout: 30 * time.Second,
		Cache:             a.pages,
		RatePerSecond:     a.cfg.RateLimit,
		MaxConcurrent:     2,
	}
	return page.HTTPNavigator{Fetcher: client}, "http"
}

func (a *App) scrapeOptions() scrape.Options {
	opts := scrape.DefaultOptions()
	if a.cfg.ConfidenceThreshold > 0 {
		opts.ConfidenceThreshold = a.cfg.ConfidenceThreshold
	}
	if a.cfg.AttemptTimeout > 0 {
		opts.AttemptTimeout = a.cfg.AttemptTimeout
	}
	if a.cfg.SiteHost != "" {
		opts.Extract.SiteHost = a.cfg.SiteHost
	}
	if a.cfg.Health != (health.Thresholds{}) {
		opts.Thresholds = a.cfg.Health
	}
	opts.CaptureHTMLOnFailure = a.cfg.CaptureHTML
	opts.Sections = a.cfg.Sections
	opts.Recorder = a.recorder
	if a.pages != nil && a.cfg.CaptureHTML {
		opts.Samples = a.pages
	}
	return opts
}

// sectionSummary is the per-section part of the output document.
type sectionSummary struct {
	Section     string               `json:"section"`
	Strategy    string               `json:"strategy,omitempty"`
	Confidence  float64              `json:"confidence"`
	Health      health.Report        `json:"health"`
	Diagnostics pipeline.Diagnostics `json:"diagnostics"`
}

// Document is the JSON written to the output path.
type Document struct {
	RunID       string           `json:"runId"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Person      profile.Person   `json:"person"`
	Sections    []sectionSummary `json:"sections"`
}

func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := log.With().Str("run", runID).Str("profile", a.cfg.ProfileURL).Logger()
	ctx = logger.WithContext(ctx)
	start := time.Now()

	nav, source := a.navigator()
	pages := newPageRecorder(nav)
	s := scrape.ForProfile(a.table, pages, a.cfg.ProfileURL, a.scrapeOptions())
	logger.Info().Str("source", source).Strs("sections", a.cfg.Sections).Msg("scrape started")

	run, err := s.Profile(ctx)
	if err != nil {
		return fmt.Errorf("scrape profile: %w", err)
	}

	doc := Document{RunID: runID, GeneratedAt: time.Now().UTC(), Person: run.Person}
	for _, sec := range run.Sections {
		doc.Sections = append(doc.Sections, sectionSummary{
			Section:     sec.Name,
			Strategy:    sec.Strategy,
			Confidence:  sec.Confidence,
			Health:      sec.Health,
			Diagnostics: sec.Diagnostics,
		})
	}
	if err := a.writeDocument(doc); err != nil {
		return err
	}

	if a.cfg.OutputPath != StdoutPath {
		meta := manifestMeta{
			RunID:         runID,
			ProfileURL:    a.cfg.ProfileURL,
			PageSource:    source,
			SelectorsFile: a.cfg.SelectorsFile,
			PageCache:     a.pages != nil,
			Version:       BuildVersion,
			GeneratedAt:   doc.GeneratedAt,
		}
		if err := a.writeManifest(meta, pages.Pages(), run.Reports()); err != nil {
			logger.Warn().Err(err).Msg("manifest write failed")
		}
	}
	a.exportMetrics(ctx)

	counts := map[health.Status]int{}
	for _, r := range run.Reports() {
		counts[r.Status]++
	}
	logger.Info().
		Int("healthy", counts[health.Healthy]).
		Int("degraded", counts[health.Degraded]).
		Int("broken", counts[health.Broken]).
		Int("pages", len(pages.Pages())).
		Dur("elapsed", time.Since(start)).
		Msg("scrape finished")

	if !run.Usable() {
		return ErrNoSections
	}
	return nil
}

func (a *App) writeDocument(doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	b = append(b, '\n')
	if a.cfg.OutputPath == StdoutPath {
		_, err := a.stdout.Write(b)
		return err
	}
	return writeFileAtomic(a.cfg.OutputPath, b)
}

func (a *App) writeManifest(meta manifestMeta, pages []manifestPage, reports []health.Report) error {
	b, err := marshalManifestJSON(meta, pages, reports)
	if err != nil {
		return err
	}
	return writeFileAtomic(deriveManifestSidecarPath(a.cfg.OutputPath), b)
}

func (a *App) exportMetrics(ctx context.Context) {
	if a.cfg.MetricsFile != "" {
		if err := a.recorder.WriteTextfile(a.cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("metrics textfile write failed")
		}
	}
	if a.cfg.MetricsPushURL != "" {
		job := a.cfg.MetricsJob
		if job == "" {
			job = MetricsJob
		}
		if err := a.recorder.Push(ctx, a.cfg.MetricsPushURL, job); err != nil {
			log.Warn().Err(err).Str("url", a.cfg.MetricsPushURL).Msg("metrics push failed")
		}
	}
}

func writeFileAtomic(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}
