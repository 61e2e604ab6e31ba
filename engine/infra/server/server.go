package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/devclub/formsheets/engine/health"
	"github.com/devclub/formsheets/engine/infra/server/middleware/ratelimit"
	"github.com/devclub/formsheets/engine/infra/server/middleware/size"
	"github.com/devclub/formsheets/engine/webhook"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	hostAny      = "0.0.0.0"
	hostLoopback = "127.0.0.1"
)

type Server struct {
	ctx        context.Context
	cfg        *config.Config
	deps       *Dependencies
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router over deps. The server owns deps from here on
// and closes them on shutdown.
func NewServer(ctx context.Context, deps *Dependencies) (*Server, error) {
	s := &Server{ctx: ctx, cfg: deps.Config, deps: deps}
	if err := s.buildRouter(); err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port)),
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) buildRouter() error {
	if s.cfg.Runtime.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware(s.ctx))
	if s.deps.Monitoring.IsInitialized() {
		r.Use(s.deps.Monitoring.GinMiddleware(s.ctx))
	}
	r.Use(LoggerMiddleware())
	if s.cfg.RateLimit.Enabled {
		opts := ratelimit.Options{
			Prefix:        s.cfg.Redis.Prefix,
			ExcludedPaths: []string{"/health", s.cfg.Monitoring.Path},
			Meter:         s.deps.Monitoring.Meter(),
		}
		if s.deps.Store != nil && s.cfg.Redis.URL.Value() != "" {
			opts.Client = s.deps.Store.Client()
		}
		limit, err := ratelimit.New(s.ctx, &s.cfg.RateLimit, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize rate limiting: %w", err)
		}
		r.Use(limit)
	}
	r.NoRoute(NotFoundHandler)
	health.Register(r, s.deps.Health)
	if s.deps.Monitoring.IsInitialized() {
		r.GET(s.deps.Monitoring.Path(), gin.WrapH(s.deps.Monitoring.ExporterHandler()))
	}
	hooks := r.Group("/", size.BodySizeLimiter(s.cfg.Webhook.MaxBody))
	webhook.Register(hooks, s.cfg.Webhook.Path, s.deps.Webhook)
	s.router = r
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT, SIGTERM or cancellation of the server context,
// then shuts down gracefully.
func (s *Server) Run() error {
	log := logger.FromContext(s.ctx)
	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s:%d", friendlyHost(s.cfg.Server.Host), s.cfg.Server.Port),
			"webhook", s.cfg.Webhook.Path)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		s.deps.Close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	}
	return s.Shutdown(context.WithoutCancel(s.ctx))
}

// Shutdown stops accepting requests, drains pending welcome messages and
// releases dependencies, all within the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer s.deps.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.deps.Intake.Wait(ctx); err != nil {
		log.Warn("Pending welcome messages abandoned", "error", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
