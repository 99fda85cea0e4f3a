package knowledge

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
	metricsOnce           sync.Once
	metricsMu             sync.Mutex
	metricsInitErr        error
	ingestDurationHist    metric.Float64Histogram
	chunkCounter          metric.Int64Counter
	queryLatencyHist      metric.Float64Histogram
	retrievalEmptyCounter metric.Int64Counter
	embeddingCacheCounter metric.Int64Counter
)

func RecordIngestDuration(ctx context.Context, collection string, d time.Duration) {
	if err := ensureMetrics(); err != nil || ingestDurationHist == nil {
		return
	}
	ingestDurationHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("collection", collection)))
}

func RecordIngestChunks(ctx context.Context, collection string, chunks int) {
	if chunks <= 0 {
		return
	}
	if err := ensureMetrics(); err != nil || chunkCounter == nil {
		return
	}
	chunkCounter.Add(ctx, int64(chunks), metric.WithAttributes(attribute.String("collection", collection)))
}

func RecordQueryLatency(ctx context.Context, collection string, d time.Duration) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("collection", collection)))
}

func RecordRetrievalEmpty(ctx context.Context, collection string) {
	if err := ensureMetrics(); err != nil || retrievalEmptyCounter == nil {
		return
	}
	retrievalEmptyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

// RecordEmbeddingCache counts cache lookups by result ("hit" or "miss").
func RecordEmbeddingCache(ctx context.Context, model string, hit bool) {
	if err := ensureMetrics(); err != nil || embeddingCacheCounter == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	embeddingCacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("result", result),
	))
}

func ResetMetricsForTesting() {
	metricsMu.Lock()
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	ingestDurationHist = nil
	chunkCounter = nil
	queryLatencyHist = nil
	retrievalEmptyCounter = nil
	embeddingCacheCounter = nil
	metricsMu.Unlock()
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("supervisor.knowledge")
		if err := initLatencyMetrics(meter); err != nil {
			metricsInitErr = err
			return
		}
		if err := initCounters(meter); err != nil {
			metricsInitErr = err
		}
	})
	return metricsInitErr
}

func initLatencyMetrics(meter metric.Meter) error {
	var err error
	ingestDurationHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "ingest_duration_seconds"),
		metric.WithDescription("Latency of collection ingestion runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.IngestDurationBuckets...),
	)
	if err != nil {
		return err
	}
	queryLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "query_latency_seconds"),
		metric.WithDescription("Latency of retrieval queries including query embedding"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.RetrievalDurationBuckets...),
	)
	return err
}

func initCounters(meter metric.Meter) error {
	var err error
	chunkCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "chunks_total"),
		metric.WithDescription("Number of chunks persisted per collection"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	retrievalEmptyCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "retrieval_empty_total"),
		metric.WithDescription("Number of retrieval queries that returned no records"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	embeddingCacheCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "embedding_cache_total"),
		metric.WithDescription("Embedding cache lookups by result"),
		metric.WithUnit("1"),
	)
	return err
}
