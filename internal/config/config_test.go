package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 1000, cfg.Harvest.DelayMs)
	require.Equal(t, 3, cfg.Harvest.MaxRetries)
	require.Equal(t, 10, cfg.Harvest.SaveInterval)
	require.False(t, cfg.Harvest.RetryFailed)
	require.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	require.NotEmpty(t, cfg.HTTP.UserAgent)
	require.Equal(t, "https://query.wikidata.org/sparql", cfg.Wikidata.SPARQLEndpoint)
	require.Equal(t, 4096, cfg.Wikidata.QIDCacheSize)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
harvest:
  delay_ms: 250
  max_retries: 5
  save_interval: 25
http:
  timeout_seconds: 10
logging:
  development: false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 250, cfg.Harvest.DelayMs)
	require.Equal(t, 5, cfg.Harvest.MaxRetries)
	require.Equal(t, 25, cfg.Harvest.SaveInterval)
	require.Equal(t, 10, cfg.HTTP.TimeoutSeconds)
	require.False(t, cfg.Logging.Development)

	// Unset keys keep their defaults.
	require.Equal(t, 250, cfg.Harvest.BackoffInitialMs)
	require.NotEmpty(t, cfg.HTTP.UserAgent)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative delay", mutate: func(c *Config) { c.Harvest.DelayMs = -1 }},
		{name: "zero retries", mutate: func(c *Config) { c.Harvest.MaxRetries = 0 }},
		{name: "zero save interval", mutate: func(c *Config) { c.Harvest.SaveInterval = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{name: "empty user agent", mutate: func(c *Config) { c.HTTP.UserAgent = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, valid().Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, time.Second, cfg.Delay())
	require.Equal(t, 250*time.Millisecond, cfg.BackoffInitial())
	require.Equal(t, 5*time.Second, cfg.BackoffMax())
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout())
}
