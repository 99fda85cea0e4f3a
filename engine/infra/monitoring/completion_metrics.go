package monitoring

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/monitoring/metrics"
)

const (
	labelModel     = "model"
	labelOutcome   = "outcome"
	labelValueNone = "unknown"
)

// CompletionMetrics records one observation per gateway call.
type CompletionMetrics struct {
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// NewCompletionMetrics registers the completion instruments on meter.
func NewCompletionMetrics(meter metric.Meter) (*CompletionMetrics, error) {
	calls, err := meter.Int64Counter(
		metrics.MetricNameWithSubsystem("llm", "completions_total"),
		metric.WithDescription("Completion gateway calls by model and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create completions counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("llm", "completion_duration_seconds"),
		metric.WithDescription("Completion gateway latency including retries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.CompletionDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create completion latency histogram: %w", err)
	}
	return &CompletionMetrics{calls: calls, latency: latency}, nil
}

// RecordCompletion implements the gateway recorder hook.
func (m *CompletionMetrics) RecordCompletion(ctx context.Context, model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if model == "" {
		model = labelValueNone
	}
	attrs := metric.WithAttributes(
		attribute.String(labelModel, model),
		attribute.String(labelOutcome, outcome),
	)
	m.calls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, d.Seconds(), attrs)
}
