package server

import (
	"context"
	"fmt"

	"github.com/devclub/formsheets/engine/form"
	"github.com/devclub/formsheets/engine/health"
	"github.com/devclub/formsheets/engine/infra/cache"
	"github.com/devclub/formsheets/engine/infra/monitoring"
	"github.com/devclub/formsheets/engine/intake"
	"github.com/devclub/formsheets/engine/normalizer"
	"github.com/devclub/formsheets/engine/notify"
	"github.com/devclub/formsheets/engine/sheets"
	"github.com/devclub/formsheets/engine/webhook"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/devclub/formsheets/pkg/version"
	"google.golang.org/api/option"
)

// Dependencies is the wired object graph behind the HTTP routes.
type Dependencies struct {
	Config     *config.Config
	Sheets     *sheets.Repository
	Intake     *intake.Service
	Webhook    *webhook.Orchestrator
	Health     *health.Checker
	Monitoring *monitoring.Service
	// Store is set when dedupe is enabled or a Redis URL is configured.
	Store cache.Store

	cleanups []func()
}

type DependencyOption func(*dependencyOptions)

type dependencyOptions struct {
	sheetsOptions []option.ClientOption
}

// WithSheetsClientOptions replaces the credentials-file client options,
// mainly to point the repository at a fake server.
func WithSheetsClientOptions(opts ...option.ClientOption) DependencyOption {
	return func(o *dependencyOptions) { o.sheetsOptions = append(o.sheetsOptions, opts...) }
}

// BuildDependencies wires every collaborator from cfg. On error, whatever
// was already built is released.
func BuildDependencies(ctx context.Context, cfg *config.Config, opts ...DependencyOption) (_ *Dependencies, err error) {
	var o dependencyOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.FromContext(ctx)
	deps := &Dependencies{Config: cfg}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	deps.Monitoring = monitoring.NewMonitoringServiceWithFallback(ctx, cfg)
	deps.onClose(func() {
		if err := deps.Monitoring.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("Failed to shutdown monitoring service", "error", err)
		}
	})
	metrics, err := webhook.NewMetrics(ctx, deps.Monitoring.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook metrics: %w", err)
	}

	deps.Sheets, err = sheets.NewRepository(ctx, &cfg.Sheets, o.sheetsOptions...)
	if err != nil {
		return nil, err
	}
	if cfg.Sheets.SpreadsheetID == "" {
		log.Warn("GOOGLE_SHEET_ID not set, submissions cannot be stored")
	}

	norm, err := normalizer.FromConfig(&cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("failed to create name normalizer: %w", err)
	}
	if !norm.Configured() {
		log.Warn("OpenAI not configured, names are stored as typed")
	}
	norm.WithObserver(metrics.NormalizerObserver())

	whatsapp, err := notify.NewClient(&cfg.WhatsApp)
	if err != nil {
		return nil, fmt.Errorf("failed to create whatsapp client: %w", err)
	}
	if !whatsapp.Configured() {
		log.Warn("WhatsApp not configured, welcome messages are disabled")
	}

	deps.Intake = intake.NewService(deps.Sheets,
		intake.WithNormalizer(norm),
		intake.WithNotifier(whatsapp),
		intake.WithLabels(form.Labels{True: cfg.Form.BooleanTrueLabel, False: cfg.Form.BooleanFalseLabel}),
		intake.WithNotifyObserver(metrics.OnNotified),
	)

	whOpts := []webhook.Option{webhook.WithMetrics(metrics)}
	if cfg.Webhook.Dedupe.Enabled || cfg.Redis.URL.Value() != "" {
		deps.Store, err = cache.SetupStore(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to setup redis: %w", err)
		}
		deps.onClose(func() { _ = deps.Store.Close() })
	}
	if cfg.Webhook.Dedupe.Enabled {
		whOpts = append(whOpts, webhook.WithIdempotency(webhook.NewRedisService(deps.Store), cfg.Webhook.Dedupe.TTL))
	}
	deps.Webhook, err = webhook.NewOrchestrator(deps.Intake, &cfg.Webhook, whOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook orchestrator: %w", err)
	}

	probes := health.DefaultProbes(cfg, deps.Sheets)
	if deps.Store != nil {
		probes = append(probes, health.Probe{Name: health.ServiceRedis, Check: deps.Store.HealthCheck})
	}
	deps.Health = health.NewChecker(version.Get().Version, probes...)
	return deps, nil
}

func (d *Dependencies) onClose(fn func()) {
	d.cleanups = append(d.cleanups, fn)
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	for i := len(d.cleanups) - 1; i >= 0; i-- {
		d.cleanups[i]()
	}
	d.cleanups = nil
}
