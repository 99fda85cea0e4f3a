package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"

	appconfig "github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

// Config represents rate limiting configuration
type Config struct {
	// Global rate limit applied per client IP
	GlobalRate RateConfig `yaml:"global_rate"`

	// Per-route rate limits keyed by path prefix
	RouteRates map[string]RateConfig `yaml:"route_rates"`

	// Options
	Prefix   string `yaml:"prefix"`
	MaxRetry int    `yaml:"max_retry"`

	// Header configuration
	DisableHeaders bool `yaml:"disable_headers"`

	// Exclude patterns
	ExcludedPaths []string `yaml:"excluded_paths"`
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period   time.Duration `yaml:"period"`
	Limit    int64         `yaml:"limit"`
	Disabled bool          `yaml:"disabled,omitempty"`
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{
			Limit:  60,
			Period: 1 * time.Minute,
		},
		RouteRates: map[string]RateConfig{
			// uploads are embedded on the next question, keep them scarce
			"/api/v0/sessions": {
				Limit:  20,
				Period: 1 * time.Minute,
			},
		},
		Prefix:   "supervisor:ratelimit:",
		MaxRetry: 3,
		ExcludedPaths: []string{
			"/healthz",
			"/metrics",
		},
	}
}

// FromAppConfig maps the server rate limit section onto the defaults.
func FromAppConfig(cfg *appconfig.Config, excluded ...string) *Config {
	out := DefaultConfig()
	rl := cfg.Server.RateLimit
	out.GlobalRate = RateConfig{Limit: rl.Limit, Period: rl.Period, Disabled: rl.Limit <= 0}
	if out.GlobalRate.Period <= 0 {
		out.GlobalRate.Period = time.Minute
	}
	if rl.Prefix != "" {
		out.Prefix = rl.Prefix
	}
	out.ExcludedPaths = append(out.ExcludedPaths, excluded...)
	return out
}

// ToLimiterRate converts RateConfig to limiter.Rate
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.GlobalRate.Disabled && c.GlobalRate.Limit <= 0 {
		return fmt.Errorf("global rate limit must be positive")
	}
	for route, rate := range c.RouteRates {
		if !rate.Disabled && rate.Limit <= 0 {
			return fmt.Errorf("route rate limit for %s must be positive", route)
		}
	}
	return nil
}
