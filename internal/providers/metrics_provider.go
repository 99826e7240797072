package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"enduro/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncPagesFetched()
	IncRateLimitHits()
	ObserveSnapshotLoad(duration time.Duration)
	ObserveSnapshotSave(duration time.Duration)
	SetActivitiesTotal(count int)
}

type MetricsProvider struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	pagesFetched     prometheus.Counter
	rateLimitHits    prometheus.Counter
	snapshotDuration *prometheus.HistogramVec
	activitiesTotal  prometheus.Gauge
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

func (m *MetricsProvider) IncPagesFetched() {
	m.pagesFetched.Inc()
}

func (m *MetricsProvider) IncRateLimitHits() {
	m.rateLimitHits.Inc()
}

func (m *MetricsProvider) ObserveSnapshotLoad(duration time.Duration) {
	m.snapshotDuration.WithLabelValues("load").Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveSnapshotSave(duration time.Duration) {
	m.snapshotDuration.WithLabelValues("save").Observe(duration.Seconds())
}

func (m *MetricsProvider) SetActivitiesTotal(count int) {
	m.activitiesTotal.Set(float64(count))
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

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enduro_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enduro_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enduro_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enduro_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		pagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enduro_strava_pages_fetched_total",
			Help: "Total number of activity pages fetched from Strava",
		}),

		rateLimitHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enduro_strava_rate_limit_hits_total",
			Help: "Total number of rate-limited Strava responses",
		}),

		snapshotDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enduro_snapshot_duration_seconds",
			Help:    "Duration of snapshot load/save operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		activitiesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enduro_activities_total",
			Help: "Number of activities in the in-memory dataset",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncPagesFetched()                                 {}
func (n *noopMetrics) IncRateLimitHits()                                {}
func (n *noopMetrics) ObserveSnapshotLoad(_ time.Duration)              {}
func (n *noopMetrics) ObserveSnapshotSave(_ time.Duration)              {}
func (n *noopMetrics) SetActivitiesTotal(_ int)                         {}
