// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Wikidata WikidataConfig `mapstructure:"wikidata"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HarvestConfig governs the harvest loop.
type HarvestConfig struct {
	DelayMs          int  `mapstructure:"delay_ms"`
	MaxRetries       int  `mapstructure:"max_retries"`
	BackoffInitialMs int  `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int  `mapstructure:"backoff_max_ms"`
	SaveInterval     int  `mapstructure:"save_interval"`
	RetryFailed      bool `mapstructure:"retry_failed"`
}

// HTTPConfig configures the outbound HTTP clients.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// WikidataConfig points at the SPARQL endpoint and sizes the QID cache.
type WikidataConfig struct {
	SPARQLEndpoint string `mapstructure:"sparql_endpoint"`
	QIDCacheSize   int    `mapstructure:"qid_cache_size"`
}

// LoggingConfig selects the zap encoder and minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. An empty path skips the
// config file and uses defaults plus environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.delay_ms", 1000)
	v.SetDefault("harvest.max_retries", 3)
	v.SetDefault("harvest.backoff_initial_ms", 250)
	v.SetDefault("harvest.backoff_max_ms", 5000)
	v.SetDefault("harvest.save_interval", 10)
	v.SetDefault("harvest.retry_failed", false)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "pnp-harvester/1.0 (+https://github.com/pnpdata/harvester)")
	v.SetDefault("wikidata.sparql_endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("wikidata.qid_cache_size", 4096)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Harvest.DelayMs < 0 {
		return fmt.Errorf("harvest.delay_ms must be >= 0")
	}
	if c.Harvest.MaxRetries <= 0 {
		return fmt.Errorf("harvest.max_retries must be > 0")
	}
	if c.Harvest.SaveInterval <= 0 {
		return fmt.Errorf("harvest.save_interval must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	return nil
}

// Delay converts the inter-call delay to a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Harvest.DelayMs) * time.Millisecond
}

// BackoffInitial converts the initial backoff to a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.Harvest.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the backoff cap to a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Harvest.BackoffMaxMs) * time.Millisecond
}

// HTTPTimeout converts the HTTP timeout to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
