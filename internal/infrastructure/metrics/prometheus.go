// Package metrics implementa ports.Metrics con Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/acrilstock-api/internal/application/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus colectores del ledger y de los documentos de movimiento.
type Prometheus struct {
	transitions     *prometheus.CounterVec
	ledgerRejected  *prometheus.CounterVec
	optimizerTime   prometheus.Histogram
	unsatisfiedCuts prometheus.Counter
}

// NewPrometheus registra los colectores en reg (prometheus.DefaultRegisterer en producción).
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acrilstock_document_transitions_total",
				Help: "Transiciones de documentos de movimiento por variante, transición y resultado",
			},
			[]string{"kind", "transition", "outcome"},
		),
		ledgerRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acrilstock_ledger_rejected_deltas_total",
				Help: "Deltas rechazados por dejar existencia negativa",
			},
			[]string{"inventory_id"},
		),
		optimizerTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "acrilstock_cut_optimizer_duration_seconds",
				Help:    "Duración de cada corrida del optimizador de cortes",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		unsatisfiedCuts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "acrilstock_cut_optimizer_unsatisfied_total",
				Help: "Corridas del optimizador que no cubrieron la cantidad pedida",
			},
		),
	}
	reg.MustRegister(m.transitions, m.ledgerRejected, m.optimizerTime, m.unsatisfiedCuts)
	return m
}

func (m *Prometheus) TransitionObserved(kind, transition, outcome string) {
	m.transitions.WithLabelValues(kind, transition, outcome).Inc()
}

func (m *Prometheus) LedgerRejected(inventoryID string) {
	m.ledgerRejected.WithLabelValues(inventoryID).Inc()
}

func (m *Prometheus) OptimizerObserved(d time.Duration, _ int, unsatisfied int64) {
	m.optimizerTime.Observe(d.Seconds())
	if unsatisfied > 0 {
		m.unsatisfiedCuts.Inc()
	}
}
