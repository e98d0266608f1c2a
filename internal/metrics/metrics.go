// Package metrics exposes ironbook's ambient Prometheus metrics: order
// outcomes, trades emitted, match latency, and idempotency hit rate.
// Deliberately a plain prometheus/client_golang registry rather than the
// full OpenTelemetry SDK the richest example repo uses elsewhere — this
// service has one process and one metrics backend, which doesn't need
// an abstraction layer over multiple exporters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the matching engine's metrics. matcherd serves it at
// /metrics; no component of the dispatch pipeline updates these counters
// or the histogram, so every series stays at its zero value.
type Registry struct {
	OrdersProcessed  *prometheus.CounterVec
	TradesEmitted    prometheus.Counter
	MatchLatency     prometheus.Histogram
	IdempotencyHits  prometheus.Counter
	IdempotencyTotal prometheus.Counter

	registerer prometheus.Registerer
}

// New registers ironbook's metrics against a fresh registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{
		registerer: reg,
		OrdersProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "ironbook",
			Name:      "orders_processed_total",
			Help:      "Orders processed, labeled by outcome (filled, resting, rejected).",
		}, []string{"outcome"}),
		TradesEmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "ironbook",
			Name:      "trades_emitted_total",
			Help:      "Trades emitted by the matching engine.",
		}),
		MatchLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "ironbook",
			Name:      "match_latency_seconds",
			Help:      "Time spent running the matching algorithm for one taker order.",
			Buckets:   prometheus.DefBuckets,
		}),
		IdempotencyHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "ironbook",
			Name:      "idempotency_duplicate_total",
			Help:      "Orders absorbed as duplicates by the idempotency guard.",
		}),
		IdempotencyTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "ironbook",
			Name:      "idempotency_checked_total",
			Help:      "Orders checked against the idempotency guard.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	reg, ok := r.registerer.(*prometheus.Registry)
	if !ok {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
