package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprofile/internal/app"
	"github.com/hyperifyio/goprofile/internal/health"
	"github.com/hyperifyio/goprofile/internal/scrape"
)

// errConfig marks errors caused by flags, env or the config file.
var errConfig = errors.New("invalid configuration")

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	cfg, showVersion, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("goprofile %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		os.Exit(0)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = run(ctx, cfg)
		stop()
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps run outcomes to the exit code policy: 2 when the run produced
// no usable section, 1 for configuration errors, 0 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errConfig):
		return 1
	default:
		return 2
	}
}

// parseConfig layers flags over env over the config file over defaults.
func parseConfig(args []string, stderr io.Writer) (app.Config, bool, error) {
	fs := flag.NewFlagSet("goprofile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	def := scrape.DefaultOptions()

	var (
		cfg         app.Config
		sections    string
		configPath  string
		envFiles    string
		showVersion bool
		healthy     float64
		degraded    float64
	)
	fs.StringVar(&cfg.ProfileURL, "url", "", "Profile URL to scrape (env PROFILE_URL)")
	fs.StringVar(&cfg.PagesDir, "pages", "", "Directory of saved pages to read instead of fetching (env PAGES_DIR)")
	fs.StringVar(&cfg.OutputPath, "output", app.OutputDefault, "Path to write the profile JSON, or - for stdout (env OUTPUT)")
	fs.StringVar(&cfg.SelectorsFile, "selectors", "", "YAML file with selector overrides (env SELECTORS_FILE)")
	fs.StringVar(&sections, "sections", "", "Comma-separated sections to run; empty runs all (env SECTIONS)")
	fs.Float64Var(&cfg.ConfidenceThreshold, "confidence", def.ConfidenceThreshold, "Minimum confidence to accept a strategy (env CONFIDENCE_THRESHOLD)")
	fs.DurationVar(&cfg.AttemptTimeout, "attempt.timeout", def.AttemptTimeout, "Timeout of one strategy attempt")
	fs.BoolVar(&cfg.CaptureHTML, "capture.html", true, "Save an HTML sample of sections that yield nothing (env CAPTURE_HTML)")
	fs.StringVar(&cfg.SiteHost, "site.host", app.SiteHostDefault, "Host whose links count as profile links")
	fs.Float64Var(&healthy, "health.healthy", def.Thresholds.Healthy, "Minimum confidence for a healthy section")
	fs.Float64Var(&degraded, "health.degraded", def.Thresholds.Degraded, "Minimum confidence for a degraded section")
	fs.StringVar(&cfg.UserAgent, "ua", app.UserAgentDefault, "User-Agent for page requests (env USER_AGENT)")
	fs.StringVar(&cfg.SessionCookie, "cookie", "", "Session Cookie header for authenticated pages (env SESSION_COOKIE)")
	fs.Float64Var(&cfg.RateLimit, "rate", 0, "Maximum page requests per second; 0 disables pacing (env RATE_LIMIT)")
	fs.IntVar(&cfg.MaxAttempts, "fetch.attempts", 3, "Attempts per page request including the first")
	fs.BoolVar(&cfg.SSLVerify, "ssl.verify", true, "Verify TLS certificates")
	fs.StringVar(&cfg.CacheDir, "cache.dir", app.CacheDirDefault, "Cache directory for pages and failure samples (env CACHE_DIR)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables (env CACHE_MAX_AGE)")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run (env CACHE_CLEAR)")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used pages above this many bytes; 0 disables")
	fs.IntVar(&cfg.CacheMaxCount, "cache.maxCount", 0, "Evict least recently used pages above this count; 0 disables")
	fs.StringVar(&cfg.MetricsFile, "metrics.file", "", "Write health metrics in Prometheus textfile format (env METRICS_FILE)")
	fs.StringVar(&cfg.MetricsPushURL, "metrics.push", "", "Pushgateway URL for health metrics (env METRICS_PUSH_URL)")
	fs.StringVar(&cfg.MetricsJob, "metrics.job", app.MetricsJob, "Pushgateway job name")
	fs.StringVar(&configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging (env VERBOSE)")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if showVersion {
		return cfg, true, nil
	}
	cfg.Sections = app.SplitList(sections)
	cfg.Health = health.Thresholds{Healthy: healthy, Degraded: degraded}

	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		return cfg, false, fmt.Errorf("%w: load env: %v", errConfig, err)
	}

	// Flags set explicitly survive file and env layering.
	explicit := cfg
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, false, fmt.Errorf("%w: %v", errConfig, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	restoreExplicit(&cfg, explicit, set)

	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, false, fmt.Errorf("%w: %v", errConfig, err)
	}
	return cfg, false, nil
}

func restoreExplicit(cfg *app.Config, flags app.Config, set map[string]bool) {
	restore := map[string]func(){
		"url":               func() { cfg.ProfileURL = flags.ProfileURL },
		"pages":             func() { cfg.PagesDir = flags.PagesDir },
		"output":            func() { cfg.OutputPath = flags.OutputPath },
		"selectors":         func() { cfg.SelectorsFile = flags.SelectorsFile },
		"sections":          func() { cfg.Sections = flags.Sections },
		"confidence":        func() { cfg.ConfidenceThreshold = flags.ConfidenceThreshold },
		"attempt.timeout":   func() { cfg.AttemptTimeout = flags.AttemptTimeout },
		"capture.html":      func() { cfg.CaptureHTML = flags.CaptureHTML },
		"site.host":         func() { cfg.SiteHost = flags.SiteHost },
		"health.healthy":    func() { cfg.Health.Healthy = flags.Health.Healthy },
		"health.degraded":   func() { cfg.Health.Degraded = flags.Health.Degraded },
		"ua":                func() { cfg.UserAgent = flags.UserAgent },
		"cookie":            func() { cfg.SessionCookie = flags.SessionCookie },
		"rate":              func() { cfg.RateLimit = flags.RateLimit },
		"fetch.attempts":    func() { cfg.MaxAttempts = flags.MaxAttempts },
		"ssl.verify":        func() { cfg.SSLVerify = flags.SSLVerify },
		"cache.dir":         func() { cfg.CacheDir = flags.CacheDir },
		"cache.maxAge":      func() { cfg.CacheMaxAge = flags.CacheMaxAge },
		"cache.clear":       func() { cfg.CacheClear = flags.CacheClear },
		"cache.strictPerms": func() { cfg.CacheStrictPerms = flags.CacheStrictPerms },
		"cache.maxBytes":    func() { cfg.CacheMaxBytes = flags.CacheMaxBytes },
		"cache.maxCount":    func() { cfg.CacheMaxCount = flags.CacheMaxCount },
		"metrics.file":      func() { cfg.MetricsFile = flags.MetricsFile },
		"metrics.push":      func() { cfg.MetricsPushURL = flags.MetricsPushURL },
		"metrics.job":       func() { cfg.MetricsJob = flags.MetricsJob },
		"v":                 func() { cfg.Verbose = flags.Verbose },
	}
	for name := range set {
		if fn, ok := restore[name]; ok {
			fn()
		}
	}
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: init app: %v", errConfig, err)
	}
	return a.Run(ctx)
}
