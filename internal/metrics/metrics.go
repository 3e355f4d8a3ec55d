// Package metrics содержит Prometheus-коллекторы techblog.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "techblog"

// Metrics - набор коллекторов сервиса.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	RateLimited  *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New регистрирует коллекторы в reg. Если reg == nil, используется отдельный реестр.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejected_total",
			Help:      "Requests rejected by the rate limiter, by policy.",
		}, []string{"policy"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_resolve_failures_total",
			Help:      "Identity resolution failures, by reason.",
		}, []string{"reason"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.Duration, m.RateLimited, m.AuthFailures)

	return m
}

// Handler отдаёт /metrics для реестра этих коллекторов.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Причины в AuthFailures.
const (
	ReasonInvalidToken = "invalid_token"
	ReasonNoAccount    = "no_account"
	ReasonStore        = "store"
)

// AuthFailure увеличивает счётчик неудачного разрешения личности. Безопасен для nil.
func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}

	m.AuthFailures.WithLabelValues(reason).Inc()
}

// Rejected увеличивает счётчик отказов лимитера. Безопасен для nil.
func (m *Metrics) Rejected(policy string) {
	if m == nil {
		return
	}

	m.RateLimited.WithLabelValues(policy).Inc()
}
