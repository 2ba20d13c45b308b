package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobRunsTotal, jobItemsTotal) }

var (
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Scheduled job runs, labeled by job and status.",
		},
		[]string{"job", "status"}, // 'ok', 'error'
	)

	jobItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_items_total",
			Help: "Items handled by scheduled jobs, labeled by job and outcome.",
		},
		[]string{"job", "outcome"},
	)
)

func IncJobRun(job, status string) {
	jobRunsTotal.WithLabelValues(norm(job), norm(status)).Inc()
}

func AddJobItems(job, outcome string, n int) {
	if n <= 0 {
		return
	}
	jobItemsTotal.WithLabelValues(norm(job), norm(outcome)).Add(float64(n))
}
