package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(envKey))
		}
	}
	setString(&cfg.ProfileURL, "PROFILE_URL")
	setString(&cfg.PagesDir, "PAGES_DIR")
	setString(&cfg.OutputPath, "OUTPUT")
	setString(&cfg.SelectorsFile, "SELECTORS_FILE")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.SessionCookie, "SESSION_COOKIE")
	setString(&cfg.MetricsFile, "METRICS_FILE")
	setString(&cfg.MetricsPushURL, "METRICS_PUSH_URL")

	if len(cfg.Sections) == 0 {
		cfg.Sections = SplitList(os.Getenv("SECTIONS"))
	}

	if cfg.CacheMaxAge == 0 {
		if d, ok := envDuration("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.RateLimit == 0 {
		if f, ok := envFloat("RATE_LIMIT"); ok && f >= 0 {
			cfg.RateLimit = f
		}
	}
	if cfg.ConfidenceThreshold == 0 {
		if f, ok := envFloat("CONFIDENCE_THRESHOLD"); ok && f > 0 {
			cfg.ConfidenceThreshold = f
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.CaptureHTML, "CAPTURE_HTML")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.ProfileURL, "PROFILE_URL")
	setString(&cfg.PagesDir, "PAGES_DIR")
	setString(&cfg.OutputPath, "OUTPUT")
	setString(&cfg.SelectorsFile, "SELECTORS_FILE")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.SessionCookie, "SESSION_COOKIE")
	setString(&cfg.MetricsFile, "METRICS_FILE")
	setString(&cfg.MetricsPushURL, "METRICS_PUSH_URL")

	if v := SplitList(os.Getenv("SECTIONS")); len(v) > 0 {
		cfg.Sections = v
	}
	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if f, ok := envFloat("RATE_LIMIT"); ok && f >= 0 {
		cfg.RateLimit = f
	}
	if f, ok := envFloat("CONFIDENCE_THRESHOLD"); ok && f > 0 {
		cfg.ConfidenceThreshold = f
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.CaptureHTML, "CAPTURE_HTML")
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	return d, err == nil
}

func envFloat(key string) (float64, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
