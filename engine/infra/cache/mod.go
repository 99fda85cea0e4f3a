package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Setup returns a Redis client for cfg: the external server when a URL is
// set, the embedded one otherwise. cleanup releases it.
func Setup(ctx context.Context, cfg *Config) (redis.UniversalClient, func(), error) {
	if cfg != nil && cfg.URL != "" {
		r, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return r.Client(), func() { _ = r.Close() }, nil
	}
	mr, err := NewMiniredisEmbedded(ctx)
	if err != nil {
		return nil, nil, err
	}
	return mr.Client(), func() { _ = mr.Close(context.WithoutCancel(ctx)) }, nil
}
