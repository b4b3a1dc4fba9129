package app

import (
	"time"

	"github.com/hyperifyio/goprofile/internal/health"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Target
	ProfileURL string
	// PagesDir reads saved pages instead of fetching over HTTP.
	PagesDir   string
	OutputPath string

	SelectorsFile string
	Sections      []string

	// Extraction
	ConfidenceThreshold float64
	AttemptTimeout      time.Duration
	CaptureHTML         bool
	SiteHost            string
	Health              health.Thresholds

	// Fetching
	UserAgent     string
	SessionCookie string
	RateLimit     float64
	MaxAttempts   int
	SSLVerify     bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxCount    int

	// Metrics
	MetricsFile    string
	MetricsPushURL string
	MetricsJob     string

	Verbose bool
}
