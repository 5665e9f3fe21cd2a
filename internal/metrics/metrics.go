package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds prometheus.Histogram

	// Dispatcher metrics
	DispatchTotal   *prometheus.CounterVec
	SendErrorsTotal prometheus.Counter

	// Audit sink metrics
	AuditQueueDepth    prometheus.Gauge
	AuditDroppedTotal  prometheus.Counter
	AuditWriteFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticallbot_webhook_requests_total",
				Help: "Webhook deliveries by outcome",
			},
			[]string{"outcome"}, // outcome: processed, empty, malformed
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticallbot_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		),

		DispatchTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticallbot_dispatch_total",
				Help: "Dispatcher transitions by kind",
			},
			[]string{"transition"}, // language_selected, language_prompt, reply, malformed
		),

		SendErrorsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ticallbot_send_errors_total",
				Help: "Outbound messages that failed to deliver",
			},
		),

		AuditQueueDepth: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "ticallbot_audit_queue_depth",
				Help: "Entries currently waiting in the audit queue",
			},
		),

		AuditDroppedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ticallbot_audit_dropped_total",
				Help: "Audit entries dropped because the queue was full",
			},
		),

		AuditWriteFailures: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticallbot_audit_write_failures_total",
				Help: "Audit persistence failures by sink",
			},
			[]string{"sink"}, // sink: primary, mirror
		),
	}
}
