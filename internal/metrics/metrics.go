package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelpay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RechargesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelpay_recharges_created_total",
			Help: "Total number of recharge records created",
		},
	)

	RechargesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_recharges_completed_total",
			Help: "Total number of recharges completed, by trigger source",
		},
		[]string{"source"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_webhook_events_total",
			Help: "Total number of inbound billing webhook events, by outcome",
		},
		[]string{"outcome"},
	)

	DebitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_debits_total",
			Help: "Total number of successful balance debits",
		},
		[]string{"product_type"},
	)

	InsufficientFundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelpay_insufficient_funds_total",
			Help: "Total number of debits rejected for insufficient balance",
		},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_provider_errors_total",
			Help: "Total number of payment provider call failures",
		},
		[]string{"operation"},
	)

	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelpay_alerts_sent_total",
			Help: "Total number of billing ops alerts sent",
		},
		[]string{"status"},
	)

	AlertQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelpay_alert_queue_length",
			Help: "Current length of the billing alert queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRechargeCreated() {
	RechargesCreatedTotal.Inc()
}

func RecordRechargeCompleted(source string) {
	RechargesCompletedTotal.WithLabelValues(source).Inc()
}

func RecordWebhookEvent(outcome string) {
	WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

func RecordDebit(productType string) {
	DebitsTotal.WithLabelValues(productType).Inc()
}

func RecordInsufficientFunds() {
	InsufficientFundsTotal.Inc()
}

func RecordProviderError(operation string) {
	ProviderErrorsTotal.WithLabelValues(operation).Inc()
}

func RecordAlert(status string) {
	AlertsSentTotal.WithLabelValues(status).Inc()
}
