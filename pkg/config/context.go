package config

import "context"

type contextKey string

const configCtxKey contextKey = "config"

// ContextWithConfig attaches cfg to ctx.
func ContextWithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configCtxKey, cfg)
}

// FromContext returns the configuration attached to ctx, or nil.
func FromContext(ctx context.Context) *Config {
	if ctx == nil {
		return nil
	}
	cfg, _ := ctx.Value(configCtxKey).(*Config)
	return cfg
}
