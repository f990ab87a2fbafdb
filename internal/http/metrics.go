package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// requestsTotal counts API requests by method, route pattern and status.
var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// requestDuration observes request latency by route pattern.
var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "fintrack",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// rateLimitRejections counts requests refused by the rate limiter.
var rateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "http",
	Name:      "rate_limit_rejections_total",
	Help:      "Total requests rejected by the per-client rate limiter.",
})

// statusRecorder captures the response code for metrics and logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMetrics instruments a handler registered under the given route
// pattern.
func withMetrics(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
