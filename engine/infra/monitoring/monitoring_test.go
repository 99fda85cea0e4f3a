package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

func init() {
	logger.InitForTests()
}

func TestNewMonitoringService(t *testing.T) {
	t.Run("Should create disabled service with default config when nil provided", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), nil)
		require.NoError(t, err)
		assert.False(t, service.IsInitialized())
		assert.Equal(t, "/metrics", service.Path())
		assert.NotNil(t, service.Meter())
		assert.NotNil(t, service.Completions())
	})
	t.Run("Should fail with invalid config", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: ""})
		require.Error(t, err)
		assert.Nil(t, service)
		assert.Contains(t, err.Error(), "monitoring path cannot be empty")
	})
	t.Run("Should fall back to a no-op service on invalid config", func(t *testing.T) {
		service := NewMonitoringServiceWithFallback(t.Context(), &Config{Enabled: true, Path: "x"})
		assert.False(t, service.IsInitialized())
		assert.Error(t, service.InitializationError())
	})
	t.Run("Should initialize with Prometheus exporter when enabled", func(t *testing.T) {
		ResetSystemMetricsForTesting()
		t.Cleanup(ResetSystemMetricsForTesting)
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = service.Shutdown(t.Context()) })
		assert.True(t, service.IsInitialized())
		assert.NotNil(t, service.exporter)
		assert.NoError(t, service.InitializationError())
	})
}

func TestService_ExporterHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Run("Should return 503 when disabled", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), DefaultConfig())
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		service.ExporterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
	t.Run("Should expose completion metrics in Prometheus format", func(t *testing.T) {
		ResetSystemMetricsForTesting()
		t.Cleanup(ResetSystemMetricsForTesting)
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = service.Shutdown(t.Context()) })
		service.Completions().RecordCompletion(t.Context(), "gemini", "ok", 20*time.Millisecond)
		rec := httptest.NewRecorder()
		service.ExporterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "supervisor_llm_completions_total")
	})
}

func TestCompletionMetrics(t *testing.T) {
	t.Run("Should label calls by model and outcome", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		m, err := NewCompletionMetrics(provider.Meter("test"))
		require.NoError(t, err)
		m.RecordCompletion(t.Context(), "", "error", time.Second)
		got := collect(t, reader)
		sum, ok := got["supervisor_llm_completions_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(1), sum.DataPoints[0].Value)
		assert.Equal(t, "unknown", attrString(t, sum.DataPoints[0].Attributes, "model"))
		assert.Equal(t, "error", attrString(t, sum.DataPoints[0].Attributes, "outcome"))
	})
	t.Run("Should ignore a nil recorder", func(t *testing.T) {
		var m *CompletionMetrics
		assert.NotPanics(t, func() { m.RecordCompletion(t.Context(), "m", "ok", 0) })
	})
}
