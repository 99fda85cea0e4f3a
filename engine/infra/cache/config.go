package cache

import (
	"time"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

// Config holds the Redis connection settings. An empty URL selects the
// embedded in-process server.
type Config struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	PingTimeout  time.Duration
}

// FromAppConfig maps the checkpoint section of the application config.
func FromAppConfig(appConfig *config.Config) *Config {
	return &Config{
		URL:         appConfig.Checkpoint.RedisURL,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		MaxRetries:  3,
		PingTimeout: 10 * time.Second,
	}
}
