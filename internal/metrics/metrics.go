// Package metrics holds the prometheus collectors of the registration service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_intake_total",
			Help: "Registration submissions by result",
		},
		[]string{"result"},
	)

	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_ratelimit_decisions_total",
			Help: "Rate limiter decisions, fail_open included",
		},
		[]string{"decision"},
	)

	Webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_notifications_total",
			Help: "Notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	GatewayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_create_order_seconds",
			Help:    "Latency of checkout creation at the payment gateway",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(Registrations, RateLimitDecisions, Webhooks, Notifications, GatewayLatency)
}
