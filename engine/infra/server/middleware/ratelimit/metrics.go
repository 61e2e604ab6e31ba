package ratelimit

import (
	"context"

	monitoringmetrics "github.com/devclub/formsheets/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type blockedCounter struct {
	counter metric.Int64Counter
}

func newBlockedCounter(meter metric.Meter) (*blockedCounter, error) {
	if meter == nil {
		return &blockedCounter{}, nil
	}
	counter, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("ratelimit", "blocks_total"),
		metric.WithDescription("Total number of requests blocked by rate limiting"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return &blockedCounter{counter: counter}, nil
}

func (b *blockedCounter) inc(ctx context.Context, route string) {
	if b.counter != nil {
		b.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
}
