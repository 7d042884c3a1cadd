package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seed_estimator",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"variant", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seed_estimator",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"variant", "method", "path", "status"},
	)
	estimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seed_estimator",
			Subsystem: "estimate",
			Name:      "total",
			Help:      "Upload form submissions by result.",
		},
		[]string{"variant", "result"},
	)
	estimateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seed_estimator",
			Subsystem: "estimate",
			Name:      "duration_seconds",
			Help:      "Time to validate, store and measure one upload.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"variant"},
	)
	estimatedArea = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "seed_estimator",
			Subsystem: "estimate",
			Name:      "area",
			Help:      "Estimated land area of successful submissions.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		},
	)
	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seed_estimator",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Signup, login and logout attempts by outcome.",
		},
		[]string{"event", "success"},
	)
)

// RegisterMetrics registers every collector with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, estimates, estimateDuration, estimatedArea, authEvents)
	})
}

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordHTTPRequest(variant, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(variant, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(variant, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordEstimate counts one processed submission. result is "ok" or an
// error kind such as "no_area".
func RecordEstimate(variant, result string, area float64, duration time.Duration) {
	RegisterMetrics()
	estimates.WithLabelValues(variant, result).Inc()
	estimateDuration.WithLabelValues(variant).Observe(duration.Seconds())
	if result == "ok" {
		estimatedArea.Observe(area)
	}
}

func RecordAuth(event string, success bool) {
	RegisterMetrics()
	authEvents.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}
