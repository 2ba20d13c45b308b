package metrics

import (
	"creator-ledger/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionTransitionsTotal,
		subscriptionsTotal,
		subscriptionPaymentsTotal,
	)
}

var (
	subscriptionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Subscription lifecycle transitions, labeled by target status.",
		},
		[]string{"to"},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"},
	)

	subscriptionPaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_payments_total",
			Help: "Invoice settlement attempts by status and currency.",
		},
		[]string{"status", "currency"},
	)
)

func IncSubscriptionTransition(to string) {
	subscriptionTransitionsTotal.WithLabelValues(norm(to)).Inc()
}

func IncSubscriptionPayment(status, currency string) {
	subscriptionPaymentsTotal.WithLabelValues(norm(status), norm(currency)).Inc()
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusCanceled,
		model.SubscriptionStatusUnpaid,
	}
	for _, status := range statuses {
		subscriptionsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
