package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

const (
	ServiceSheets   = "googleSheets"
	ServiceWhatsApp = "whatsapp"
	ServiceOpenAI   = "openai"
	ServiceRedis    = "redis"
)

const (
	msgAllUp    = "all services operational"
	msgDegraded = "service operational with limited functionality"
	msgCritical = "critical service unavailable"
)

const defaultProbeTimeout = 5 * time.Second

var (
	ErrNotConfigured = errors.New("not configured")
	ErrUnavailable   = errors.New("unavailable")
)

// Probe checks one dependency. A nil error means the dependency is usable.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Report is the body of GET /health.
type Report struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Services  map[string]bool `json:"services"`
}

// Code maps the report status to an HTTP status.
func (r *Report) Code() int {
	switch r.Status {
	case StatusOK:
		return http.StatusOK
	case StatusDegraded:
		return http.StatusPartialContent
	default:
		return http.StatusServiceUnavailable
	}
}

type Checker struct {
	version string
	probes  []Probe
	timeout time.Duration
	now     func() time.Time
}

func NewChecker(version string, probes ...Probe) *Checker {
	return &Checker{version: version, probes: probes, timeout: defaultProbeTimeout, now: time.Now}
}

// Availability is satisfied by the sheets repository.
type Availability interface {
	IsAvailable(ctx context.Context) bool
}

// DefaultProbes builds the standard probe set from the injected config. A
// nil sheets repository is reported as unavailable.
func DefaultProbes(cfg *config.Config, sheets Availability) []Probe {
	return []Probe{
		{Name: ServiceSheets, Critical: true, Check: func(ctx context.Context) error {
			if sheets == nil || !sheets.IsAvailable(ctx) {
				return ErrUnavailable
			}
			return nil
		}},
		Static(ServiceWhatsApp, cfg.WhatsApp.Configured()),
		Static(ServiceOpenAI, cfg.OpenAI.Configured()),
	}
}

// Static reports a fixed value, for dependencies only checked by config.
func Static(name string, ok bool) Probe {
	return Probe{Name: name, Check: func(context.Context) error {
		if !ok {
			return ErrNotConfigured
		}
		return nil
	}}
}

// Check runs every probe concurrently, each bounded by the checker timeout.
// Probes never cancel each other. The returned error is the first failure
// of a critical probe, nil when every critical dependency is up.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	services := make(map[string]bool, len(c.probes))
	var mu sync.Mutex
	var g errgroup.Group
	for _, p := range c.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			err := runProbe(pctx, p)
			mu.Lock()
			services[p.Name] = err == nil
			mu.Unlock()
			if err != nil && p.Critical {
				return fmt.Errorf("%s: %w", p.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return c.summarize(services), err
}

func runProbe(ctx context.Context, p Probe) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("health probe panicked", "service", p.Name, "panic", r)
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return p.Check(ctx)
}

func (c *Checker) summarize(services map[string]bool) *Report {
	criticalUp, allUp := true, true
	for _, p := range c.probes {
		if services[p.Name] {
			continue
		}
		allUp = false
		if p.Critical {
			criticalUp = false
		}
	}
	r := &Report{
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
		Version:   c.version,
		Services:  services,
	}
	switch {
	case !criticalUp:
		r.Status, r.Message = StatusError, msgCritical
	case !allUp:
		r.Status, r.Message = StatusDegraded, msgDegraded
	default:
		r.Status, r.Message = StatusOK, msgAllUp
	}
	return r
}

// Register mounts GET /health.
//
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} Report "All services operational"
// @Success 206 {object} Report "Degraded"
// @Failure 503 {object} Report "Critical service unavailable"
// @Router /health [get]
func Register(r gin.IRoutes, c *Checker) {
	r.GET("/health", func(ctx *gin.Context) {
		report, err := c.Check(ctx.Request.Context())
		if report.Status != StatusOK {
			logger.FromContext(ctx.Request.Context()).Warn("health check not ok",
				"status", report.Status, "services", report.Services, "error", err)
		}
		ctx.JSON(report.Code(), report)
	})
}
