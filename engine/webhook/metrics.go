package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	monitoringmetrics "github.com/devclub/formsheets/engine/infra/monitoring/metrics"
	"github.com/devclub/formsheets/engine/normalizer"
	"github.com/devclub/formsheets/engine/notify"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	OutcomeSuccess      = "success"
	OutcomeDuplicate    = "duplicate"
	OutcomeBadRequest   = "bad_request"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

const (
	notifySent          = "sent"
	notifyNotConfigured = "not_configured"
	notifyInvalidPhone  = "invalid_phone"
	notifyFailed        = "failed"
)

// Metrics instruments webhook processing. A nil *Metrics or one built from
// a nil meter records nothing.
type Metrics struct {
	meter           metric.Meter
	receivedTotal   metric.Int64Counter
	outcomeTotal    metric.Int64Counter
	normalizedTotal metric.Int64Counter
	notifiedTotal   metric.Int64Counter
	processing      metric.Float64Histogram
	normalizeTime   metric.Float64Histogram
	payloadSize     metric.Int64Histogram
}

func NewMetrics(_ context.Context, meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}
	if meter == nil {
		return m, nil
	}
	if err := m.initCounters(); err != nil {
		return nil, err
	}
	if err := m.initHistograms(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initCounters() error {
	defs := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.receivedTotal, "received_total", "Total webhook requests received"},
		{&m.outcomeTotal, "processed_total", "Webhook requests by outcome"},
		{&m.normalizedTotal, "name_normalization_total", "Name normalization calls by outcome"},
		{&m.notifiedTotal, "notifications_total", "Welcome message attempts by outcome"},
	}
	for _, def := range defs {
		counter, err := m.meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("webhook", def.name),
			metric.WithDescription(def.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create webhook %s counter: %w", def.name, err)
		}
		*def.target = counter
	}
	return nil
}

func (m *Metrics) initHistograms() error {
	var err error
	m.processing, err = m.meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("webhook", "processing_duration_seconds"),
		metric.WithDescription("Overall webhook processing duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.PipelineDurationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook processing histogram: %w", err)
	}
	m.normalizeTime, err = m.meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("webhook", "name_normalization_duration_seconds"),
		metric.WithDescription("Name normalization call duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.CallDurationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create normalization histogram: %w", err)
	}
	m.payloadSize, err = m.meter.Int64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("webhook", "payload_size_bytes"),
		metric.WithDescription("Size distribution of webhook payloads"),
		metric.WithUnit("bytes"),
		metric.WithExplicitBucketBoundaries(100, 1000, 10000, 100000, 1000000),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook payload histogram: %w", err)
	}
	return nil
}

func (m *Metrics) OnReceived(ctx context.Context, payloadBytes int) {
	if m == nil || m.receivedTotal == nil {
		return
	}
	m.receivedTotal.Add(ctx, 1)
	m.payloadSize.Record(ctx, int64(payloadBytes))
}

// ObserveOutcome records the duration and the result of one request.
func (m *Metrics) ObserveOutcome(ctx context.Context, outcome string, d time.Duration) {
	if m == nil || m.outcomeTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.outcomeTotal.Add(ctx, 1, attrs)
	m.processing.Record(ctx, d.Seconds(), attrs)
}

// NormalizerObserver adapts the metrics to normalizer outcome callbacks.
func (m *Metrics) NormalizerObserver() normalizer.Observer {
	return func(ctx context.Context, outcome normalizer.Outcome, elapsed time.Duration) {
		if m == nil || m.normalizedTotal == nil {
			return
		}
		attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
		m.normalizedTotal.Add(ctx, 1, attrs)
		if outcome != normalizer.OutcomeSkipped {
			m.normalizeTime.Record(ctx, elapsed.Seconds(), attrs)
		}
	}
}

// OnNotified classifies a welcome message attempt.
func (m *Metrics) OnNotified(ctx context.Context, err error) {
	if m == nil || m.notifiedTotal == nil {
		return
	}
	m.notifiedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", notifyOutcome(err))))
}

func notifyOutcome(err error) string {
	switch {
	case err == nil:
		return notifySent
	case errors.Is(err, notify.ErrNotConfigured):
		return notifyNotConfigured
	case errors.Is(err, notify.ErrInvalidPhone):
		return notifyInvalidPhone
	default:
		return notifyFailed
	}
}
