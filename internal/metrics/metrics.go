package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_transactions_created_total",
		Help: "Direct payments successfully created at the gateway",
	})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipaymu_requests_total",
		Help: "Calls to the iPaymu API by operation and outcome",
	}, []string{"operation", "outcome"})

	ConversionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capi_events_total",
		Help: "Conversion events submitted to Meta CAPI by event name and result",
	}, []string{"event", "result"})

	WebhookNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipaymu_webhook_notifications_total",
		Help: "Gateway payment notifications by outcome",
	}, []string{"outcome"})
)
