package providers

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
	"timekeeper/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	AddImported(accepted, skipped int)
	ObserveBackupDuration(duration time.Duration)
}

// EventCounter is the store view the events gauge reads on scrape.
type EventCounter interface {
	CountEvents(ctx context.Context) (int, error)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	importedTotal   *prometheus.CounterVec
	backupDuration  prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) AddImported(accepted, skipped int) {
	m.importedTotal.WithLabelValues("accepted").Add(float64(accepted))
	m.importedTotal.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *MetricsProvider) ObserveBackupDuration(duration time.Duration) {
	m.backupDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, events EventCounter) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tk_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tk_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tk_flow_cache_hits_total",
			Help: "Total number of flow cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tk_flow_cache_misses_total",
			Help: "Total number of flow cache misses",
		}),

		importedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tk_import_records_total",
			Help: "Imported records by outcome",
		}, []string{"outcome"}),

		backupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tk_backup_duration_seconds",
			Help:    "Duration of backup snapshots in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tk_events_total",
		Help: "Current number of stored events",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := events.CountEvents(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) AddImported(_, _ int)                             {}
func (n *noopMetrics) ObserveBackupDuration(_ time.Duration)            {}
