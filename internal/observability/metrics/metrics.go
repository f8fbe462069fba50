// Package metrics exposes prometheus counters for the billing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides the metrics set and its registry.
var Module = fx.Provide(New)

// Metrics holds the engine's counters.
type Metrics struct {
	Registry *prometheus.Registry

	EventsPublished         *prometheus.CounterVec
	PaymentsAttempted       *prometheus.CounterVec
	SubscriptionTransitions *prometheus.CounterVec
	LimitDenials            prometheus.Counter
}

// New registers the engine counters on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qzpay",
			Name:      "events_published_total",
			Help:      "Domain events published, by event type.",
		}, []string{"event_type"}),
		PaymentsAttempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qzpay",
			Name:      "payments_attempted_total",
			Help:      "Payment attempts, by outcome.",
		}, []string{"status"}),
		SubscriptionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qzpay",
			Name:      "subscription_transitions_total",
			Help:      "Subscription lifecycle transitions, by target status.",
		}, []string{"status"}),
		LimitDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qzpay",
			Name:      "limit_denials_total",
			Help:      "Usage limit checks that denied the request.",
		}),
	}

	registry.MustRegister(
		m.EventsPublished,
		m.PaymentsAttempted,
		m.SubscriptionTransitions,
		m.LimitDenials,
	)

	return m
}
