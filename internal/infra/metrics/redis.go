package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheLookups, rateLimited) }

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_cache_lookups_total",
			Help: "Read-through cache lookups by cache and result (hit, miss, error).",
		},
		[]string{"cache", "result"},
	)
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rate_limited_total",
			Help: "Requests rejected by the fixed-window rate limiter.",
		},
		[]string{"scope"},
	)
)

// IncCacheRequest counts a lookup. An "error" result means redis was
// unreachable and the lookup fell through to the database.
func IncCacheRequest(cacheName, result string) {
	cacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(norm(scope)).Inc()
}
