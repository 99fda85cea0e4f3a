package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel/metric"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Manager holds one limiter per configured rate.
type Manager struct {
	config *Config
	global *limiter.Limiter
	routes map[string]*limiter.Limiter
}

// NewManager builds limiters over Redis when client is non-nil, otherwise
// over an in-process store.
func NewManager(cfg *Config, client redis.UniversalClient) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := newStore(cfg, client)
	if err != nil {
		return nil, err
	}
	m := &Manager{config: cfg, routes: make(map[string]*limiter.Limiter, len(cfg.RouteRates))}
	if !cfg.GlobalRate.Disabled {
		m.global = limiter.New(store, cfg.GlobalRate.ToLimiterRate())
	}
	for route, rate := range cfg.RouteRates {
		if rate.Disabled {
			continue
		}
		m.routes[route] = limiter.New(store, rate.ToLimiterRate())
	}
	return m, nil
}

// NewManagerWithMetrics is NewManager plus the blocked-requests counter.
func NewManagerWithMetrics(
	ctx context.Context,
	cfg *Config,
	client redis.UniversalClient,
	meter metric.Meter,
) (*Manager, error) {
	if meter != nil {
		if err := InitMetrics(meter); err != nil {
			logger.FromContext(ctx).Warn("Rate limit metrics disabled", "error", err)
		}
	}
	return NewManager(cfg, client)
}

func newStore(cfg *Config, client redis.UniversalClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: cfg.Prefix, MaxRetry: cfg.MaxRetry}
	if client == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return store, nil
}

// Middleware enforces the route limit, if any, then the global limit.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if m.excluded(path) {
			c.Next()
			return
		}
		key := c.ClientIP()
		if route, lim := m.routeLimiter(path); lim != nil {
			if !m.allow(c, lim, route+":"+key, route) {
				return
			}
		}
		if m.global != nil && !m.allow(c, m.global, "global:"+key, "global") {
			return
		}
		c.Next()
	}
}

func (m *Manager) allow(c *gin.Context, lim *limiter.Limiter, key, route string) bool {
	ctx := c.Request.Context()
	res, err := lim.Get(ctx, key)
	if err != nil {
		// an unreachable store must not take the API down
		logger.FromContext(ctx).Error("Rate limiter unavailable", "error", err)
		return true
	}
	if !m.config.DisableHeaders {
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))
	}
	if res.Reached {
		IncrementBlockedRequests(ctx, route)
		router.RespondProblemWithCode(c, http.StatusTooManyRequests, router.ErrTooManyRequestsCode,
			"rate limit exceeded")
		return false
	}
	return true
}

func (m *Manager) routeLimiter(path string) (string, *limiter.Limiter) {
	best := ""
	for route := range m.routes {
		if strings.HasPrefix(path, route) && len(route) > len(best) {
			best = route
		}
	}
	if best == "" {
		return "", nil
	}
	return best, m.routes[best]
}

func (m *Manager) excluded(path string) bool {
	for _, p := range m.config.ExcludedPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
