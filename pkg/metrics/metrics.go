package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records counters for the record store and backup engine.
type StoreMetrics struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	imported   prometheus.Counter
	exported   *prometheus.CounterVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
// A nil registerer yields a no-op collector, which tests rely on.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_operations_total",
		Help: "Record store operations by kind.",
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "record_operation_failures_total",
		Help: "Failed record store operations by kind.",
	}, []string{"op"})
	imported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "records_imported_total",
		Help: "Records written through the backup import path.",
	})
	exported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_exports_total",
		Help: "Backup exports by format.",
	}, []string{"format"})
	reg.MustRegister(operations, failures, imported, exported)
	return &StoreMetrics{
		operations: operations,
		failures:   failures,
		imported:   imported,
		exported:   exported,
	}
}

// IncOperation counts one store operation of the named kind.
func (m *StoreMetrics) IncOperation(op string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

// IncFailure counts one failed store operation of the named kind.
func (m *StoreMetrics) IncFailure(op string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

// AddImported counts records restored through the import path.
func (m *StoreMetrics) AddImported(n int) {
	if m == nil || m.imported == nil {
		return
	}
	m.imported.Add(float64(n))
}

// IncExport counts a completed export in the given format.
func (m *StoreMetrics) IncExport(format string) {
	if m == nil || m.exported == nil {
		return
	}
	m.exported.WithLabelValues(format).Inc()
}
