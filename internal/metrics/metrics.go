// Package metrics содержит Prometheus-коллекторы сервиса.
// Нулевой указатель *Metrics допустим: все методы становятся no-op.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "posts"

type Metrics struct {
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec
	wsSessions      *prometheus.GaugeVec
	authFailures    *prometheus.CounterVec
	graphqlDuration *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg (prometheus.DefaultRegisterer в main,
// отдельный prometheus.NewRegistry() в тестах).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published to the in-process bus.",
		}, []string{"event"}),
		eventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}, []string{"event"}),
		subscribers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Active bus subscribers.",
		}, []string{"event"}),
		wsSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_sessions",
			Help:      "Open websocket sessions.",
		}, []string{"protocol"}),
		authFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected bearer tokens.",
		}, []string{"reason"}),
		graphqlDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_duration_seconds",
			Help:      "GraphQL operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(event).Inc()
}

func (m *Metrics) EventDropped(event string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(event).Inc()
}

// SubscriberAdded / SubscriberRemoved двигают gauge активных подписчиков.
func (m *Metrics) SubscriberAdded(event string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(event).Inc()
}

func (m *Metrics) SubscriberRemoved(event string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(event).Dec()
}

func (m *Metrics) WSSessionOpened(protocol string) {
	if m == nil {
		return
	}
	m.wsSessions.WithLabelValues(protocol).Inc()
}

func (m *Metrics) WSSessionClosed(protocol string) {
	if m == nil {
		return
	}
	m.wsSessions.WithLabelValues(protocol).Dec()
}

// AuthFailure учитывает отклонённый токен; reason: invalid_token, unknown_user, revoked.
func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

// ObserveGraphQL фиксирует длительность операции (query, mutation, subscription).
func (m *Metrics) ObserveGraphQL(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.graphqlDuration.WithLabelValues(operation).Observe(d.Seconds())
}
