// Package metrics exposes the platform's prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	usageDecisions     *prometheus.CounterVec
	purchasesCompleted *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	sweepExpired       *prometheus.CounterVec
	rateLimitDenied    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emploihub_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emploihub_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		usageDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emploihub_usage_decisions_total",
			Help: "Quota decisions by feature, outcome and charged source.",
		}, []string{"feature", "allowed", "source"}),
		purchasesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emploihub_purchases_completed_total",
			Help: "Completed purchases by catalog kind.",
		}, []string{"kind"}),
		webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emploihub_webhook_events_total",
			Help: "Webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		sweepExpired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emploihub_sweep_expired_total",
			Help: "Records flipped to expired by the sweeper, by kind.",
		}, []string{"kind"}),
		rateLimitDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emploihub_rate_limit_denied_total",
			Help: "Usage calls refused by the rate limiter.",
		}),
	}
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordUsageDecision(feature string, allowed bool, source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.usageDecisions.WithLabelValues(feature, strconv.FormatBool(allowed), source).Inc()
}

func (m *Metrics) RecordPurchaseCompleted(kind string) {
	if m == nil {
		return
	}
	m.purchasesCompleted.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordWebhookEvent(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordSweepExpired(kind string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.sweepExpired.WithLabelValues(kind).Add(float64(count))
}

func (m *Metrics) RecordRateLimitDenied() {
	if m == nil {
		return
	}
	m.rateLimitDenied.Inc()
}
