package inventory

import "github.com/shopspring/decimal"

// MetricsRecorder recibe los eventos del motor de inventario (Prometheus en producción).
type MetricsRecorder interface {
	MovementRecorded(movementType string, quantity decimal.Decimal)
	ProductionCommitted(inputLines int)
	OperationFailed(operation string, err error)
}

// NopMetrics descarta los eventos.
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string, decimal.Decimal) {}
func (NopMetrics) ProductionCommitted(int)                  {}
func (NopMetrics) OperationFailed(string, error)            {}
