// Package metrics содержит prometheus-коллекторы, используемые сервисом.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics хранит коллекторы prometheus для всего приложения.
type Metrics struct {
	GatewayRequests    *prometheus.CounterVec
	GatewayLatency     *prometheus.HistogramVec
	WebhookEvents      *prometheus.CounterVec
	RateLimitRejected  *prometheus.CounterVec
	NotificationEmails *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry создаёт и регистрирует синглтон метрик с заданным namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total payment gateway API requests by endpoint and status.",
			}, []string{"endpoint", "status"}),
			GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Latency distribution for payment gateway API calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint", "status"}),
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total inbound webhook events by source and outcome.",
			}, []string{"source", "outcome"}),
			RateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_rejected_total",
				Help:      "Total requests rejected by the rate limiter per route.",
			}, []string{"route"}),
			NotificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_emails_total",
				Help:      "Total notification e-mails by kind and outcome.",
			}, []string{"kind", "outcome"}),
		}
		prometheus.MustRegister(
			metricsInstance.GatewayRequests,
			metricsInstance.GatewayLatency,
			metricsInstance.WebhookEvents,
			metricsInstance.RateLimitRejected,
			metricsInstance.NotificationEmails,
		)
	})
	return metricsInstance
}
