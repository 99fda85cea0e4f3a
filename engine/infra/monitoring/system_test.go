package monitoring

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/version"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSystemMetrics(t *testing.T) {
	t.Run("Should record build info and uptime", func(t *testing.T) {
		ResetSystemMetricsForTesting()
		t.Cleanup(ResetSystemMetricsForTesting)
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		InitSystemMetrics(t.Context(), provider.Meter("test"))
		got := collect(t, reader)
		build, ok := got["supervisor_build_info"]
		require.True(t, ok)
		gauge, ok := build.Data.(metricdata.Gauge[float64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, float64(1), gauge.DataPoints[0].Value)
		assert.Equal(t, runtime.Version(), attrString(t, gauge.DataPoints[0].Attributes, "go_version"))
		_, ok = got["supervisor_uptime_seconds"]
		assert.True(t, ok)
	})
}

func TestBuildInfoAttributes(t *testing.T) {
	t.Run("Should label build info with the ldflags version", func(t *testing.T) {
		orig := version.Version
		t.Cleanup(func() { version.Version = orig })
		version.Version = "v1.2.3"
		ResetSystemMetricsForTesting()
		t.Cleanup(ResetSystemMetricsForTesting)
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		InitSystemMetrics(t.Context(), provider.Meter("test"))
		gauge, ok := collect(t, reader)["supervisor_build_info"].Data.(metricdata.Gauge[float64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, "v1.2.3", attrString(t, gauge.DataPoints[0].Attributes, "version"))
	})
}
