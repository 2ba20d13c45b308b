package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(poolConns, poolAcquireWait) }

var (
	poolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"},
	)
	poolAcquireWait = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_db_pool_acquire_wait_seconds",
			Help: "Cumulative time spent waiting for a pooled connection.",
		},
	)
)

// PoolStat is a snapshot of the connection pool, copied out of pgxpool.Stat.
type PoolStat struct {
	Max, Total, Idle, Acquired, Constructing int32
	EmptyAcquires                            int64
	AcquireWait                              float64
}

func SetDBPoolStats(s PoolStat) {
	poolConns.WithLabelValues("max").Set(float64(s.Max))
	poolConns.WithLabelValues("total").Set(float64(s.Total))
	poolConns.WithLabelValues("idle").Set(float64(s.Idle))
	poolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	poolConns.WithLabelValues("constructing").Set(float64(s.Constructing))
	poolConns.WithLabelValues("empty_acquires").Set(float64(s.EmptyAcquires))
	poolAcquireWait.Set(s.AcquireWait)
}
