package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		tipsTotal,
		tipGrossTotal,
		platformFeesTotal,
		earningTransitionsTotal,
		tipPaymentEvents,
	)
}

var (
	tipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tips_total",
			Help: "Tips by status (pending/completed/failed).",
		},
		[]string{"status"},
	)

	tipGrossTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_gross_amount_total",
			Help: "Gross value of confirmed tips in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	platformFeesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_fees_total",
			Help: "Platform fees booked on earnings, labeled by source type and currency.",
		},
		[]string{"source_type", "currency"},
	)

	earningTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earning_transitions_total",
			Help: "Earning status transitions (created/available/deleted/reversed).",
		},
		[]string{"to"},
	)

	tipPaymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tip_payment_events_total",
			Help: "Non-terminal tip payment events (attempt_failed, partial_refund).",
		},
		[]string{"kind"},
	)
)

func IncTip(status string) {
	tipsTotal.WithLabelValues(norm(status)).Inc()
}

func AddTipGross(currency string, amount int64) {
	tipGrossTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func AddPlatformFee(sourceType, currency string, fee int64) {
	platformFeesTotal.WithLabelValues(norm(sourceType), norm(currency)).Add(float64(fee))
}

func IncEarningTransition(to string) {
	earningTransitionsTotal.WithLabelValues(norm(to)).Inc()
}

func IncTipPaymentEvent(kind string) {
	tipPaymentEvents.WithLabelValues(norm(kind)).Inc()
}
