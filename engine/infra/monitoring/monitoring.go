package monitoring

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devclub/formsheets/engine/infra/monitoring/middleware"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "formsheets"

// Service owns the meter provider and the Prometheus registry backing the
// scrape endpoint.
type Service struct {
	meter             metric.Meter
	provider          *sdkmetric.MeterProvider
	registry          *prom.Registry
	config            config.MonitoringConfig
	initialized       bool
	initializationErr error
}

func newDisabledService(cfg config.MonitoringConfig, initErr error) *Service {
	return &Service{
		config:            cfg,
		meter:             noop.NewMeterProvider().Meter(meterName),
		initializationErr: initErr,
	}
}

// NewMonitoringService builds the service from the application config.
// A disabled config yields a no-op meter.
func NewMonitoringService(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = config.Default()
	}
	mcfg := cfg.Monitoring
	if err := validate(&mcfg, cfg.Webhook.Path); err != nil {
		return nil, err
	}
	if !mcfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(mcfg, nil), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	s := &Service{
		meter:       provider.Meter(meterName),
		provider:    provider,
		registry:    registry,
		config:      mcfg,
		initialized: true,
	}
	if err := registerSystemMetrics(ctx, s.meter); err != nil {
		log.Warn("Failed to register system metrics", "error", err)
	}
	log.Info("Monitoring service initialized", "path", mcfg.Path)
	return s, nil
}

// NewMonitoringServiceWithFallback never fails: initialization errors are
// logged and a no-op service is returned instead.
func NewMonitoringServiceWithFallback(ctx context.Context, cfg *config.Config) *Service {
	s, err := NewMonitoringService(ctx, cfg)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize monitoring, using no-op implementation", "error", err)
		var mcfg config.MonitoringConfig
		if cfg != nil {
			mcfg = cfg.Monitoring
		}
		return newDisabledService(mcfg, err)
	}
	return s
}

func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Path is the route the exporter should be mounted on.
func (s *Service) Path() string {
	return s.config.Path
}

// GinMiddleware returns the HTTP metrics middleware, or a pass-through one
// when monitoring is off.
func (s *Service) GinMiddleware(ctx context.Context) gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.HTTPMetrics(ctx, s.meter)
}

// ExporterHandler serves the Prometheus exposition format.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}

func (s *Service) IsInitialized() bool {
	return s.initialized
}

func (s *Service) InitializationError() error {
	return s.initializationErr
}
