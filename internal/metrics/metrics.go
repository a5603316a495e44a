// Package metrics defines the Prometheus collectors exported by the vault.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the vault's collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Intents         *prometheus.CounterVec
	Queries         *prometheus.CounterVec
}

// New registers collectors with reg. A nil reg registers nothing, which keeps
// repeated construction in tests from panicking on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "execute_requests_total",
			Help:      "Execute requests by message type and outcome.",
		}, []string{"msg", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vault",
			Name:      "execute_duration_seconds",
			Help:      "Execute latency including intent dispatch and commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"msg"}),
		Intents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "intents_total",
			Help:      "Settlement intents handed to the executor, by kind.",
		}, []string{"kind"}),
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "query_requests_total",
			Help:      "Read-only queries by type.",
		}, []string{"query"}),
	}
}
