package providers

import (
	"time"
	"timekeeper/internal/structures"
)

// MetricsFlowCacheProvider wraps a FlowCacheInterface and increments
// hit/miss counters on every Get call.
type MetricsFlowCacheProvider struct {
	inner   FlowCacheInterface
	metrics MetricsProviderInterface
}

func (c *MetricsFlowCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *MetricsFlowCacheProvider) Set(key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(key, value, ttl)
}

func (c *MetricsFlowCacheProvider) Is(key string) bool {
	return c.inner.Is(key)
}

func (c *MetricsFlowCacheProvider) Clear(key string) bool {
	return c.inner.Clear(key)
}

// NewInstrumentedFlowCacheProvider creates a flow cache wrapped with metrics
// instrumentation. Without metrics the plain cache is returned.
func NewInstrumentedFlowCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) FlowCacheInterface {
	inner := NewFlowCacheProvider(conf, logger)
	if !conf.Metrics.Enabled {
		return inner
	}
	return &MetricsFlowCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
