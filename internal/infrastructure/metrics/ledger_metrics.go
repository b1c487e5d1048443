package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
)

var _ inventory.MetricsRecorder = (*LedgerMetrics)(nil)

// LedgerMetrics colectores Prometheus del motor de inventario sobre un registry propio.
type LedgerMetrics struct {
	registry    *prometheus.Registry
	movements   *prometheus.CounterVec
	quantity    *prometheus.CounterVec
	productions prometheus.Counter
	inputLines  prometheus.Histogram
	failures    *prometheus.CounterVec
}

// NewLedgerMetrics registra los colectores (más los de proceso y runtime de Go).
func NewLedgerMetrics(namespace string) *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := &LedgerMetrics{
		registry: reg,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_total",
			Help:      "Movimientos registrados por tipo.",
		}, []string{"type"}),
		quantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movement_quantity_total",
			Help:      "Cantidad absoluta movida por tipo y dirección.",
		}, []string{"type", "direction"}),
		productions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_productions_total",
			Help:      "Corridas de producción confirmadas.",
		}),
		inputLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_production_input_lines",
			Help:      "Insumos consumidos por corrida.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operation_failures_total",
			Help:      "Operaciones rechazadas por operación y tipo de error.",
		}, []string{"operation", "kind"}),
	}
	reg.MustRegister(
		m.movements, m.quantity, m.productions, m.inputLines, m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *LedgerMetrics) MovementRecorded(movementType string, qty decimal.Decimal) {
	m.movements.WithLabelValues(movementType).Inc()
	direction := "in"
	if qty.IsNegative() {
		direction = "out"
	}
	m.quantity.WithLabelValues(movementType, direction).Add(qty.Abs().InexactFloat64())
}

func (m *LedgerMetrics) ProductionCommitted(inputLines int) {
	m.productions.Inc()
	m.inputLines.Observe(float64(inputLines))
}

func (m *LedgerMetrics) OperationFailed(operation string, err error) {
	m.failures.WithLabelValues(operation, Kind(err)).Inc()
}

// Registry expone el registry (tests con testutil).
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler handler HTTP de /metrics.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var kinds = []struct {
	err  error
	name string
}{
	{domain.ErrCommitFailed, "commit_failed"},
	{domain.ErrInsufficientStock, "insufficient_stock"},
	{domain.ErrInvalidQuantity, "invalid_quantity"},
	{domain.ErrInvalidMovementType, "invalid_movement_type"},
	{domain.ErrUnknownItem, "unknown_item"},
	{domain.ErrUnknownWarehouse, "unknown_warehouse"},
	{domain.ErrBOMNotFound, "bom_not_found"},
	{domain.ErrBOMOutputMismatch, "bom_output_mismatch"},
	{domain.ErrAmbiguousProductionInput, "ambiguous_production_input"},
	{domain.ErrDuplicateInputLine, "duplicate_input_line"},
	{domain.ErrInvalidInput, "invalid_input"},
}

// Kind etiqueta corta para el tipo de error; "other" si no es de dominio.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}
