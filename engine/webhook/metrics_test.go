package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devclub/formsheets/engine/normalizer"
	"github.com/devclub/formsheets/engine/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Should init without panic on a noop meter", func(t *testing.T) {
		m, err := NewMetrics(ctx, noop.NewMeterProvider().Meter("test"))
		require.NoError(t, err)
		m.OnReceived(ctx, 512)
		m.ObserveOutcome(ctx, OutcomeSuccess, time.Millisecond)
		m.NormalizerObserver()(ctx, normalizer.OutcomeFallback, time.Millisecond)
		m.OnNotified(ctx, nil)
	})

	t.Run("Should be safe on a nil receiver", func(_ *testing.T) {
		var m *Metrics
		m.OnReceived(ctx, 1)
		m.ObserveOutcome(ctx, OutcomeError, time.Second)
		m.NormalizerObserver()(ctx, normalizer.OutcomeNormalized, time.Second)
		m.OnNotified(ctx, errors.New("x"))
	})

	t.Run("Should count notification outcomes", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		m, err := NewMetrics(ctx, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		require.NoError(t, err)
		m.OnNotified(ctx, nil)
		m.OnNotified(ctx, fmt.Errorf("wrap: %w", notify.ErrInvalidPhone))
		m.OnNotified(ctx, notify.ErrNotConfigured)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		outcomes := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if metric.Name != "formsheets_webhook_notifications_total" {
					continue
				}
				for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
					v, _ := dp.Attributes.Value(attribute.Key("outcome"))
					outcomes[v.AsString()] = dp.Value
				}
			}
		}
		assert.Equal(t, map[string]int64{"sent": 1, "invalid_phone": 1, "not_configured": 1}, outcomes)
	})
}
