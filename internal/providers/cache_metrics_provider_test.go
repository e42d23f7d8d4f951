package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheMetricsTestMetrics struct {
	hits   int
	misses int
}

func (m *cacheMetricsTestMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *cacheMetricsTestMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *cacheMetricsTestMetrics) IncCacheHits()                                    { m.hits++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses()                                  { m.misses++ }
func (m *cacheMetricsTestMetrics) AddImported(_, _ int)                             {}
func (m *cacheMetricsTestMetrics) ObserveBackupDuration(_ time.Duration)            {}

type cacheMetricsTestInner struct {
	data map[string][]byte
}

func (c *cacheMetricsTestInner) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *cacheMetricsTestInner) Set(key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *cacheMetricsTestInner) Is(key string) bool {
	_, ok := c.data[key]
	return ok
}

func (c *cacheMetricsTestInner) Clear(key string) bool {
	_, ok := c.data[key]
	delete(c.data, key)
	return ok
}

func TestMetricsFlowCacheProvider_Hit(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"key1": []byte("val1")}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &MetricsFlowCacheProvider{inner: inner, metrics: metrics}

	val, ok := cache.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, []byte("val1"), val)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 0, metrics.misses)
}

func TestMetricsFlowCacheProvider_Miss(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &MetricsFlowCacheProvider{inner: inner, metrics: metrics}

	val, ok := cache.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Equal(t, 0, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestMetricsFlowCacheProvider_Delegates(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &MetricsFlowCacheProvider{inner: inner, metrics: metrics}

	require.NoError(t, cache.Set("key2", []byte("val2"), time.Minute))
	assert.True(t, cache.Is("key2"))
	assert.True(t, cache.Clear("key2"))
	assert.False(t, cache.Is("key2"))
	assert.Zero(t, metrics.hits+metrics.misses, "only Get is counted")
}

func TestNewInstrumentedFlowCacheProvider(t *testing.T) {
	conf := cacheConfig(1)
	metrics := &cacheMetricsTestMetrics{}

	assert.IsType(t, &FlowCacheProvider{}, NewInstrumentedFlowCacheProvider(conf, &cacheTestLogger{}, metrics))

	conf.Metrics.Enabled = true
	assert.IsType(t, &MetricsFlowCacheProvider{}, NewInstrumentedFlowCacheProvider(conf, &cacheTestLogger{}, metrics))
}
