package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getenvFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(getenvFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.RateInterval)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.ReadyTimeout)
	assert.True(t, cfg.ReadyOptimistic)
	assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
	assert.Equal(t, "ffprobe", cfg.FFprobeBin)
	assert.Equal(t, 6, cfg.SegmentSeconds)
	assert.Empty(t, cfg.APIKey)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(getenvFrom(map[string]string{
		"VIDBRIDGE_LISTEN":          ":9090",
		"VIDBRIDGE_DATA_DIR":        "/srv/vidbridge",
		"VIDBRIDGE_PUBLIC_URL":      "https://cdn.example.com/",
		"VIDBRIDGE_RATE_INTERVAL":   "120",
		"VIDBRIDGE_CACHE_TTL":       "30m",
		"VIDBRIDGE_ALLOWED_ORIGINS": "app.example.com, admin.example.com",
		"VIDBRIDGE_SEARCH_UPSTREAM": "https://search.example.com/",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/srv/vidbridge", cfg.DataDir)
	// trailing slash trimmed so link building never double-slashes
	assert.Equal(t, "https://cdn.example.com", cfg.PublicURL)
	// bare integers are seconds
	assert.Equal(t, 120*time.Second, cfg.RateInterval)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"app.example.com", "admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://search.example.com", cfg.SearchUpstreamURL)
}

func TestFromEnvInvalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"zero ttl", map[string]string{"VIDBRIDGE_CACHE_TTL": "0"}},
		{"bad upstream", map[string]string{"VIDBRIDGE_UPSTREAM_API": "not a url"}},
		{"bad search upstream", map[string]string{"VIDBRIDGE_SEARCH_UPSTREAM": "ldap://x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(getenvFrom(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestEnsureDataDir(t *testing.T) {
	cfg := Config{DataDir: t.TempDir()}
	require.NoError(t, cfg.EnsureDataDir())

	// second call is idempotent
	require.NoError(t, cfg.EnsureDataDir())
}

func TestStreamsDir(t *testing.T) {
	cfg := Config{DataDir: "/var/lib/vidbridge"}
	assert.Equal(t, "/var/lib/vidbridge/streams", cfg.StreamsDir())
}
