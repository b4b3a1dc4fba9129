package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goprofile/internal/health"
	"github.com/hyperifyio/goprofile/internal/scrape"
	"github.com/hyperifyio/goprofile/internal/selectors"
)

// Defaults shared by flag parsing and file config layering.
const (
	OutputDefault    = "profile.json"
	CacheDirDefault  = ".goprofile-cache"
	UserAgentDefault = "goprofile/1.0 (+https://github.com/hyperifyio/goprofile)"
	SiteHostDefault  = "linkedin.com"
	MetricsJob       = "goprofile"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Profile string `yaml:"profile" json:"profile"`
	Pages   string `yaml:"pages" json:"pages"`
	Output  string `yaml:"output" json:"output"`

	Selectors string   `yaml:"selectors" json:"selectors"`
	Sections  []string `yaml:"sections" json:"sections"`
	Verbose   bool     `yaml:"verbose" json:"verbose"`

	Extract struct {
		ConfidenceThreshold float64       `yaml:"confidenceThreshold" json:"confidenceThreshold"`
		AttemptTimeout      time.Duration `yaml:"attemptTimeout" json:"attemptTimeout"`
		CaptureHTML         *bool         `yaml:"captureHTML" json:"captureHTML"`
		SiteHost            string        `yaml:"siteHost" json:"siteHost"`
	} `yaml:"extract" json:"extract"`

	Health *health.Thresholds `yaml:"health" json:"health"`

	Fetch struct {
		UserAgent     string  `yaml:"userAgent" json:"userAgent"`
		SessionCookie string  `yaml:"sessionCookie" json:"sessionCookie"`
		RateLimit     float64 `yaml:"rateLimit" json:"rateLimit"`
		MaxAttempts   int     `yaml:"maxAttempts" json:"maxAttempts"`
		SSLVerify     *bool   `yaml:"sslVerify" json:"sslVerify"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxCount    int           `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Metrics struct {
		File    string `yaml:"file" json:"file"`
		PushURL string `yaml:"pushURL" json:"pushURL"`
		Job     string `yaml:"job" json:"job"`
	} `yaml:"metrics" json:"metrics"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default. Flags should already
// have been parsed; file config supplies defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := scrape.DefaultOptions()

	if cfg.ProfileURL == "" && fc.Profile != "" {
		cfg.ProfileURL = fc.Profile
	}
	if cfg.PagesDir == "" && fc.Pages != "" {
		cfg.PagesDir = fc.Pages
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == OutputDefault) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.SelectorsFile == "" && fc.Selectors != "" {
		cfg.SelectorsFile = fc.Selectors
	}
	if len(cfg.Sections) == 0 && len(fc.Sections) > 0 {
		cfg.Sections = append([]string{}, fc.Sections...)
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if (cfg.ConfidenceThreshold == 0 || cfg.ConfidenceThreshold == def.ConfidenceThreshold) && fc.Extract.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = fc.Extract.ConfidenceThreshold
	}
	if (cfg.AttemptTimeout == 0 || cfg.AttemptTimeout == def.AttemptTimeout) && fc.Extract.AttemptTimeout > 0 {
		cfg.AttemptTimeout = fc.Extract.AttemptTimeout
	}
	if fc.Extract.CaptureHTML != nil {
		cfg.CaptureHTML = *fc.Extract.CaptureHTML
	}
	if (cfg.SiteHost == "" || cfg.SiteHost == SiteHostDefault) && fc.Extract.SiteHost != "" {
		cfg.SiteHost = fc.Extract.SiteHost
	}
	if fc.Health != nil && (cfg.Health == health.Thresholds{} || cfg.Health == health.DefaultThresholds()) {
		cfg.Health = *fc.Health
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == UserAgentDefault) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.SessionCookie == "" && fc.Fetch.SessionCookie != "" {
		cfg.SessionCookie = fc.Fetch.SessionCookie
	}
	if cfg.RateLimit == 0 && fc.Fetch.RateLimit > 0 {
		cfg.RateLimit = fc.Fetch.RateLimit
	}
	if cfg.MaxAttempts == 0 && fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if fc.Fetch.SSLVerify != nil {
		cfg.SSLVerify = *fc.Fetch.SSLVerify
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == CacheDirDefault) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxCount == 0 && fc.Cache.MaxCount > 0 {
		cfg.CacheMaxCount = fc.Cache.MaxCount
	}

	if cfg.MetricsFile == "" && fc.Metrics.File != "" {
		cfg.MetricsFile = fc.Metrics.File
	}
	if cfg.MetricsPushURL == "" && fc.Metrics.PushURL != "" {
		cfg.MetricsPushURL = fc.Metrics.PushURL
	}
	if (cfg.MetricsJob == "" || cfg.MetricsJob == MetricsJob) && fc.Metrics.Job != "" {
		cfg.MetricsJob = fc.Metrics.Job
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ProfileURL) == "" {
		return errors.New("config: profile url is required (or set PROFILE_URL)")
	}
	u, err := url.Parse(cfg.ProfileURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: invalid profile url %q", cfg.ProfileURL)
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return errors.New("config: confidence threshold must be within [0,1]")
	}
	if cfg.RateLimit < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxCount < 0 || cfg.MaxAttempts < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.Health != (health.Thresholds{}) && cfg.Health.Degraded > cfg.Health.Healthy {
		return errors.New("config: degraded threshold exceeds healthy threshold")
	}
	known := map[string]bool{}
	for _, n := range selectors.Default().Names() {
		known[n] = true
	}
	for _, s := range cfg.Sections {
		if !known[s] {
			return fmt.Errorf("config: unknown section %q", s)
		}
	}
	return nil
}
