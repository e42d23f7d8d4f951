package providers

import (
	"context"
	"errors"
	"testing"
	"time"
	"timekeeper/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricsTestCounter struct {
	n   int
	err error
}

func (c *metricsTestCounter) CountEvents(_ context.Context) (int, error) { return c.n, c.err }

func useTestRegistry(t *testing.T) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prevReg, prevGather := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prevReg
		prometheus.DefaultGatherer = prevGather
	})
	return reg
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf, &metricsTestCounter{})
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.AddImported(3, 1)
	m.ObserveBackupDuration(time.Millisecond)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf, &metricsTestCounter{})
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")

	m.IncRequestsTotal("/events", 200)
	m.IncRequestsTotal("/events", 404)
	m.ObserveRequestDuration("/events", 5*time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.AddImported(4, 2)
	m.ObserveBackupDuration(100 * time.Millisecond)
}

func TestMetricsProvider_EventsGaugeReadsStore(t *testing.T) {
	reg := useTestRegistry(t)
	counter := &metricsTestCounter{n: 7}

	NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}, counter)
	assert.Equal(t, float64(7), gaugeValue(t, reg, "tk_events_total"))

	counter.err = errors.New("store down")
	assert.Equal(t, float64(0), gaugeValue(t, reg, "tk_events_total"))
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
