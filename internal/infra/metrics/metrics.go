package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds the engine's counters. A nil Recorder is valid and records
// nothing, so tests can skip metrics wiring.
type Recorder struct {
	adjustments       *prometheus.CounterVec
	ledgerEntries     prometheus.Counter
	insufficientStock prometheus.Counter
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "Completed per-ingredient stock adjustments by direction.",
		}, []string{"direction"}),
		ledgerEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_ledger_entries_total",
			Help: "Ledger rows appended to the inventory audit trail.",
		}),
		insufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insufficient_stock_warnings_total",
			Help: "Consume adjustments that proceeded past an insufficient stock check.",
		}),
	}
	reg.MustRegister(r.adjustments, r.ledgerEntries, r.insufficientStock)
	return r
}

func (r *Recorder) AdjustmentApplied(direction string) {
	if r == nil {
		return
	}
	r.adjustments.WithLabelValues(direction).Inc()
}

func (r *Recorder) LedgerEntryWritten() {
	if r == nil {
		return
	}
	r.ledgerEntries.Inc()
}

func (r *Recorder) InsufficientStock() {
	if r == nil {
		return
	}
	r.insufficientStock.Inc()
}
