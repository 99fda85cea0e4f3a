package router

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/monitoring/metrics"
)

var (
	metricsOnce    sync.Once
	metricsInitErr error
	routeHist      metric.Float64Histogram
)

func recordRoute(ctx context.Context, c Category, d time.Duration) {
	if err := ensureMetrics(); err != nil || routeHist == nil {
		return
	}
	routeHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("category", c.Label())))
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("supervisor.router")
		routeHist, metricsInitErr = meter.Float64Histogram(
			metrics.MetricNameWithSubsystem("router", "request_duration_seconds"),
			metric.WithDescription("Latency of routed requests by category"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(metrics.RouteDurationBuckets...),
		)
	})
	return metricsInitErr
}
