package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhooksTotal,
		webhookDuration,
		webhookRejectedTotal,
	)
}

var (
	webhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_total",
			Help: "Webhook deliveries by declared type and reconciliation outcome.",
		},
		[]string{"type", "outcome"},
	)

	webhookDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_seconds",
			Help:    "Time spent reconciling one webhook delivery.",
			Buckets: prometheus.DefBuckets,
		},
	)

	webhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_rejected_total",
			Help: "Webhook requests rejected before processing (bad_signature/bad_payload).",
		},
		[]string{"reason"},
	)
)

func IncWebhook(webhookType, outcome string) {
	webhooksTotal.WithLabelValues(norm(webhookType), norm(outcome)).Inc()
}

func ObserveWebhookDuration(d time.Duration) {
	webhookDuration.Observe(d.Seconds())
}

func IncWebhookRejected(reason string) {
	webhookRejectedTotal.WithLabelValues(norm(reason)).Inc()
}
