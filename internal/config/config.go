// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings sourced from environment variables.
// It is read once at startup and then treated as immutable.
type Config struct {
	ListenAddr string // VIDBRIDGE_LISTEN
	DataDir    string // VIDBRIDGE_DATA_DIR
	PublicURL  string // VIDBRIDGE_PUBLIC_URL, base for hls_link values

	RateInterval time.Duration // VIDBRIDGE_RATE_INTERVAL, min gap between job creations
	CacheTTL     time.Duration // VIDBRIDGE_CACHE_TTL

	ReadyTimeout    time.Duration // VIDBRIDGE_READY_TIMEOUT
	ReadyOptimistic bool          // VIDBRIDGE_READY_OPTIMISTIC

	FFmpegBin  string // VIDBRIDGE_FFMPEG_BIN
	FFprobeBin string // VIDBRIDGE_FFPROBE_BIN

	SegmentSeconds int // VIDBRIDGE_SEGMENT_SECONDS

	APIKey         string   // VIDBRIDGE_API_KEY, empty disables the check
	AllowedOrigins []string // VIDBRIDGE_ALLOWED_ORIGINS, comma separated

	UpstreamAPIURL    string // VIDBRIDGE_UPSTREAM_API, catalog passthrough target
	SearchUpstreamURL string // VIDBRIDGE_SEARCH_UPSTREAM, search passthrough target

	LogLevel string // VIDBRIDGE_LOG_LEVEL
}

// FromEnv reads all runtime environment variables exactly once using the
// provided getenv. Pass os.Getenv in production; tests inject their own.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		return Config{}, fmt.Errorf("getenv is nil")
	}

	cfg := Config{
		ListenAddr:        getString(getenv, "VIDBRIDGE_LISTEN", ":8000"),
		DataDir:           getString(getenv, "VIDBRIDGE_DATA_DIR", "/var/lib/vidbridge"),
		PublicURL:         strings.TrimRight(getString(getenv, "VIDBRIDGE_PUBLIC_URL", ""), "/"),
		RateInterval:      getDuration(getenv, "VIDBRIDGE_RATE_INTERVAL", 90*time.Second),
		CacheTTL:          getDuration(getenv, "VIDBRIDGE_CACHE_TTL", time.Hour),
		ReadyTimeout:      getDuration(getenv, "VIDBRIDGE_READY_TIMEOUT", 15*time.Second),
		ReadyOptimistic:   getBool(getenv, "VIDBRIDGE_READY_OPTIMISTIC", true),
		FFmpegBin:         getString(getenv, "VIDBRIDGE_FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:        getString(getenv, "VIDBRIDGE_FFPROBE_BIN", "ffprobe"),
		SegmentSeconds:    getInt(getenv, "VIDBRIDGE_SEGMENT_SECONDS", 6),
		APIKey:            getString(getenv, "VIDBRIDGE_API_KEY", ""),
		AllowedOrigins:    getList(getenv, "VIDBRIDGE_ALLOWED_ORIGINS"),
		UpstreamAPIURL:    strings.TrimRight(getString(getenv, "VIDBRIDGE_UPSTREAM_API", ""), "/"),
		SearchUpstreamURL: strings.TrimRight(getString(getenv, "VIDBRIDGE_SEARCH_UPSTREAM", ""), "/"),
		LogLevel:          getString(getenv, "VIDBRIDGE_LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.RateInterval < 0 {
		return fmt.Errorf("rate interval must not be negative, got %s", c.RateInterval)
	}
	if c.SegmentSeconds <= 0 {
		return fmt.Errorf("segment duration must be positive, got %d", c.SegmentSeconds)
	}
	if c.PublicURL != "" {
		if _, err := url.Parse(c.PublicURL); err != nil {
			return fmt.Errorf("invalid public URL: %w", err)
		}
	}
	if c.UpstreamAPIURL != "" {
		u, err := url.Parse(c.UpstreamAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid upstream API URL: %q", c.UpstreamAPIURL)
		}
	}
	if c.SearchUpstreamURL != "" {
		u, err := url.Parse(c.SearchUpstreamURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid search upstream URL: %q", c.SearchUpstreamURL)
		}
	}
	return nil
}

// StreamsDir returns the root directory holding per-job output directories.
func (c Config) StreamsDir() string {
	return filepath.Join(c.DataDir, "streams")
}

// EnsureDataDir creates the streams directory and verifies it is writable.
// An unwritable cache directory is a startup-fatal condition.
func (c Config) EnsureDataDir() error {
	dir := c.StreamsDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create streams directory: %w", err)
	}
	probe := filepath.Join(dir, ".writecheck")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return fmt.Errorf("streams directory not writable: %w", err)
	}
	_ = os.Remove(probe)
	return nil
}

func getString(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(getenv func(string) string, key string, def bool) bool {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	// Accept bare seconds for operator convenience.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getList(getenv func(string) string, key string) []string {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
