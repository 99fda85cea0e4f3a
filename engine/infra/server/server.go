package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/cache"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/appstate"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/middleware/ratelimit"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/middleware/size"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/server/routes"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/session"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/supervisor"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	serverShutdownTimeout = 5 * time.Second
	httpReadTimeout       = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
)

// Server exposes the supervisor over HTTP.
type Server struct {
	app         *supervisor.App
	state       *appstate.State
	router      *gin.Engine
	redisClient redis.UniversalClient
}

// NewServer builds the gin engine around app. A Redis checkpoint URL also
// backs the rate limiter so limits hold across replicas.
func NewServer(ctx context.Context, app *supervisor.App) (*Server, error) {
	if app == nil || app.Config == nil {
		return nil, fmt.Errorf("server: app is required")
	}
	srvCfg := app.Config.Server
	state, err := appstate.NewState(app, session.NewStore(srvCfg.MaxSessions, srvCfg.SessionTTL))
	if err != nil {
		return nil, err
	}
	s := &Server{app: app, state: state}
	if app.Config.Checkpoint.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cache.FromAppConfig(app.Config))
		if err != nil {
			return nil, fmt.Errorf("server: rate limit store: %w", err)
		}
		s.redisClient = r.Client()
	}
	s.buildRouter(ctx)
	return s, nil
}

func (s *Server) buildRouter(ctx context.Context) {
	log := logger.FromContext(ctx)
	cfg := s.app.Config
	mon := s.app.Monitoring
	monitored := mon != nil && mon.IsInitialized()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(log))
	if monitored {
		r.Use(mon.GinMiddleware())
	}
	if cfg.Server.RateLimit.Limit > 0 {
		rlCfg := ratelimit.FromAppConfig(cfg)
		if monitored {
			rlCfg.ExcludedPaths = append(rlCfg.ExcludedPaths, mon.Path())
		}
		var (
			manager *ratelimit.Manager
			err     error
		)
		if monitored {
			manager, err = ratelimit.NewManagerWithMetrics(ctx, rlCfg, s.redisClient, mon.Meter())
		} else {
			manager, err = ratelimit.NewManager(rlCfg, s.redisClient)
		}
		if err != nil {
			log.Error("Failed to initialize rate limiting", "error", err)
		} else {
			r.Use(manager.Middleware())
			driver := "memory"
			if s.redisClient != nil {
				driver = "redis"
			}
			log.Info("Rate limiter initialized",
				"driver", driver,
				"limit", rlCfg.GlobalRate.Limit,
				"period", rlCfg.GlobalRate.Period)
		}
	}
	r.Use(appstate.StateMiddleware(s.state))
	if monitored {
		r.GET(mon.Path(), gin.WrapH(mon.ExporterHandler()))
	}
	r.GET(routes.Health(), Health)
	api := r.Group(routes.Base())
	api.POST("/ask", Ask)
	api.POST("/sessions/:id/document", size.BodySizeLimiter(cfg.Server.MaxUploadBytes), UploadDocument)
	api.GET("/plans/:name", DownloadPlan)
	s.router = r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)
}

// Run serves until ctx is canceled or the process receives SIGINT/SIGTERM,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer s.close()
	log := logger.FromContext(ctx)
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: httpReadTimeout,
		IdleTimeout:       httpIdleTimeout,
		// answers may take as long as the slowest agent
		WriteTimeout: s.app.Config.Server.Timeout + httpReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Debug("Received shutdown signal, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) close() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
}
