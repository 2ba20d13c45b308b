// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestDuration) }

var httpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern, method and status code.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route", "method", "code"},
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, code int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(route, strings.ToUpper(method), strconv.Itoa(code)).Observe(seconds)
}
