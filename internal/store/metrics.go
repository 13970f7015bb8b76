package store

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome and rollback strategy label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"

	strategyRestore = "restore"
	strategyResync  = "resync"
)

type metrics struct {
	operations *prometheus.CounterVec
	rollbacks  *prometheus.CounterVec
	inflight   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Settled store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "store",
			Name:      "rollbacks_total",
			Help:      "Optimistic updates undone after a failed call, by recovery strategy.",
		}, []string{"operation", "strategy"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tasklist",
			Subsystem: "store",
			Name:      "inflight_actions",
			Help:      "Mutations currently awaiting the remote API.",
		}),
	}
	if reg == nil {
		return m
	}
	m.operations = register(reg, m.operations)
	m.rollbacks = register(reg, m.rollbacks)
	m.inflight = register(reg, m.inflight)
	return m
}

// register registers c, reusing an identical collector that is already
// registered (several stores may share one registry).
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) observe(op string, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *metrics) rollback(op, strategy string) {
	m.rollbacks.WithLabelValues(op, strategy).Inc()
}
