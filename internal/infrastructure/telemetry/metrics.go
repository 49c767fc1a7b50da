package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offering_bowl"

// Metrics holds the Prometheus collectors for the service. Each instance
// has its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPInFlight       prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	RateLimited        prometheus.Counter
	ActivitiesRecorded *prometheus.CounterVec
	ActivityFailures   prometheus.Counter
	FeedSourcesQueried prometheus.Histogram
}

// NewMetrics registers all collectors, plus the Go and process collectors,
// on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		ActivitiesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "recorded_total",
			Help:      "Activity log entries written, by type.",
		}, []string{"type"}),
		ActivityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "record_failures_total",
			Help:      "Activity log writes that failed.",
		}),
		FeedSourcesQueried: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "sources_queried",
			Help:      "Monastic sources queried per feed page.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}

	m.Registry.MustRegister(
		m.HTTPInFlight,
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimited,
		m.ActivitiesRecorded,
		m.ActivityFailures,
		m.FeedSourcesQueried,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ActivityRecorded counts a written activity. The helpers below are no-ops
// on a nil *Metrics.
func (m *Metrics) ActivityRecorded(activityType string) {
	if m == nil {
		return
	}
	m.ActivitiesRecorded.WithLabelValues(activityType).Inc()
}

// ActivityFailed counts a failed activity write
func (m *Metrics) ActivityFailed() {
	if m == nil {
		return
	}
	m.ActivityFailures.Inc()
}

// FeedQueried observes the number of sources a feed page fanned out to
func (m *Metrics) FeedQueried(sources int) {
	if m == nil {
		return
	}
	m.FeedSourcesQueried.Observe(float64(sources))
}
