package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		gatewayRequests,
		gatewayDuration,
		breakerState,
		webhookEventsTotal,
	)
}

var (
	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_requests_total",
			Help: "Calls to the payment gateway by provider, operation and result.",
		},
		[]string{"provider", "op", "result"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_request_duration_seconds",
			Help:    "Payment gateway call latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "op"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "payment_gateway_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open).",
		},
		[]string{"provider"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by provider, type and result (processed/duplicate/ignored/error/rejected).",
		},
		[]string{"provider", "type", "result"},
	)
)

func ObserveGatewayCall(provider, op string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayRequests.WithLabelValues(norm(provider), op, result).Inc()
	gatewayDuration.WithLabelValues(norm(provider), op).Observe(seconds)
}

func SetBreakerState(provider string, state int) {
	breakerState.WithLabelValues(norm(provider)).Set(float64(state))
}

func IncWebhookEvent(provider, eventType, result string) {
	webhookEventsTotal.WithLabelValues(norm(provider), eventType, result).Inc()
}
