// Package metrics holds the Prometheus collectors for platform traffic.
// Collectors register with the default registry on package init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthvault_http_attempts_total",
			Help: "HTTP requests sent to the platform, by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	httpAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthvault_http_attempt_duration_seconds",
			Help:    "Duration of single HTTP attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	httpRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthvault_http_retries_total",
			Help: "HTTP attempts repeated after a server error",
		},
		[]string{"method"},
	)

	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthvault_operations_total",
			Help: "Thing client operations by platform method and result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthvault_operation_duration_seconds",
			Help:    "Duration of thing client operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	thingsTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthvault_things_total",
			Help: "Things read, written or removed",
		},
		[]string{"direction"},
	)
)

// RecordHTTPAttempt counts one HTTP request. outcome is the status text or
// "error" for network failures.
func RecordHTTPAttempt(method, outcome string, d time.Duration) {
	httpAttempts.WithLabelValues(method, outcome).Inc()
	httpAttemptDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordHTTPRetry counts an attempt that repeats a failed one.
func RecordHTTPRetry(method string) {
	httpRetries.WithLabelValues(method).Inc()
}

// RecordOperation records one client operation. result is "success" or an
// error classification such as "validation" or "service".
func RecordOperation(operation, result string, d time.Duration) {
	operations.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordThings counts items moved in one direction: "read", "written" or
// "removed".
func RecordThings(direction string, n int) {
	if n > 0 {
		thingsTransferred.WithLabelValues(direction).Add(float64(n))
	}
}
