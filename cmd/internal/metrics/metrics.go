// Package metrics holds the process-wide Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	InvoiceConfirms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_invoice_confirms_total",
			Help: "Invoice confirmation attempts by result.",
		},
		[]string{"result"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_webhook_events_total",
			Help: "Card-processor webhook deliveries by result.",
		},
		[]string{"result"},
	)

	IndexerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stickershop_indexer_requests_total",
			Help: "Chain indexer lookups by outcome.",
		},
		[]string{"outcome"},
	)

	CheckoutSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stickershop_checkout_sessions_total",
			Help: "Card checkout sessions created.",
		},
	)
)

// Register registers all collectors on the default registry.
// It must be called exactly once, at startup.
func Register() {
	prometheus.MustRegister(InvoiceConfirms, WebhookEvents, IndexerRequests, CheckoutSessions)
}
