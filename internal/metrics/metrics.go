package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "localbase"

var (
	// Registry holds the application collectors exposed on /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transactionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "transitions_total",
			Help:      "Transaction state transitions by type and resulting status.",
		},
		[]string{"type", "status"},
	)

	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain_sync",
			Name:      "runs_total",
			Help:      "Chain sync runs by outcome.",
		},
		[]string{"success"},
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain_sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of chain sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	syncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain_sync",
			Name:      "business_failures_total",
			Help:      "Businesses whose contract view could not be refreshed.",
		},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transactionTransitions,
		syncRuns,
		syncDuration,
		syncFailures,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight and returns its completion hook.
func RequestStarted() func(method, path string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, path string, status int) {
		httpInFlight.Dec()
		if path == "" {
			path = "unmatched"
		}
		method = strings.ToUpper(method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a transaction entering status.
func RecordTransition(txType, status string) {
	transactionTransitions.WithLabelValues(txType, status).Inc()
}

// RecordSync records one chain sync run.
func RecordSync(duration time.Duration, failedBusinesses int, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	syncRuns.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	syncDuration.Observe(duration.Seconds())
	syncFailures.Add(float64(failedBusinesses))
}

// RecordRateLimited counts a throttled request.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RegisterGauge exposes a value read at scrape time, such as the number of
// websocket subscribers.
func RegisterGauge(subsystem, name, help string, fn func() float64) error {
	return Registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		fn,
	))
}
