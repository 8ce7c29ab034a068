// Package config loads application configuration from an optional YAML
// file plus environment variables, with sane defaults for every key.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// OSRMConfig configures the routing-engine client
type OSRMConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	Profile           string `mapstructure:"profile"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
}

// SolverConfig configures the batch assignment run
type SolverConfig struct {
	RadiusKM float64 `mapstructure:"radius_km"`
	Unique   bool    `mapstructure:"unique"`
}

// FinderConfig configures the KML nearest-route search
type FinderConfig struct {
	Strategy string `mapstructure:"strategy"`
}

// CacheConfig configures the road-distance cache
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// AppConfig holds the entire configuration
type AppConfig struct {
	OSRM   OSRMConfig   `mapstructure:"osrm"`
	Solver SolverConfig `mapstructure:"solver"`
	Finder FinderConfig `mapstructure:"finder"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// Load reads configuration from path (optional, "" means env/defaults
// only). Environment variables override file values, e.g. OSRM_BASE_URL.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("osrm.base_url", "http://localhost:5000")
	v.SetDefault("osrm.profile", "car")
	v.SetDefault("osrm.max_retries", 5)
	v.SetDefault("osrm.retry_delay_seconds", 1)
	v.SetDefault("osrm.timeout_seconds", 30)
	v.SetDefault("solver.radius_km", 10)
	v.SetDefault("solver.unique", false)
	v.SetDefault("finder.strategy", "projection")
	v.SetDefault("cache.path", "")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
