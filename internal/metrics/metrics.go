// Package metrics exposes Prometheus collectors for the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expenses"

var (
	expensesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "added_total",
		Help:      "Expenses appended to a session store.",
	})

	expensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_total",
		Help:      "Expenses removed from a session store.",
	})

	editAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edit_attempts_total",
		Help:      "Edit actions requested by users.",
	})

	validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected entry form fields.",
		},
		[]string{"field"},
	)

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory.",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	histogramResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_time_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "status"},
	)
)

func ExpenseAdded()   { expensesAdded.Inc() }
func ExpenseDeleted() { expensesDeleted.Inc() }
func EditAttempted()  { editAttempts.Inc() }
func RateLimited()    { rateLimited.Inc() }

// ValidationFailed records one rejected form field.
func ValidationFailed(field string) {
	validationFailures.WithLabelValues(field).Inc()
}

// SetActiveSessions publishes the current session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// ObserveResponse records the latency of one HTTP response.
func ObserveResponse(method string, status int, elapsed time.Duration) {
	histogramResponseTime.
		WithLabelValues(method, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
