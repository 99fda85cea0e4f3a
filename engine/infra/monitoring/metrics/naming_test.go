package metrics

import "testing"

func TestMetricName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "adds prefix", input: "requests_total", expected: "supervisor_requests_total"},
		{name: "keeps prefixed", input: "supervisor_custom_metric", expected: "supervisor_custom_metric"},
		{name: "blank returns prefix", input: "", expected: "supervisor_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MetricName(tt.input); got != tt.expected {
				t.Fatalf("MetricName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMetricNameWithSubsystem(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		subsystem  string
		metricName string
		expected   string
	}{
		{
			name:       "subsystem and name",
			subsystem:  "router",
			metricName: "routes_total",
			expected:   "supervisor_router_routes_total",
		},
		{
			name:       "subsystem trims underscore",
			subsystem:  "_knowledge_",
			metricName: "chunks_total",
			expected:   "supervisor_knowledge_chunks_total",
		},
		{name: "empty name", subsystem: "travel", metricName: "", expected: "supervisor_travel"},
		{name: "empty subsystem", subsystem: "", metricName: "uptime_seconds", expected: "supervisor_uptime_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MetricNameWithSubsystem(tt.subsystem, tt.metricName); got != tt.expected {
				t.Fatalf("MetricNameWithSubsystem(%q, %q) = %q, want %q", tt.subsystem, tt.metricName, got, tt.expected)
			}
		})
	}
}
