package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados observables de una corrida de producción.
const (
	ProductionStatusPending   = "PENDING"
	ProductionStatusCommitted = "COMMITTED"
)

// ProductionRun agrupa los movimientos PRODUCTION de una corrida:
// uno positivo (salida) y uno negativo por insumo, todos con Reference = ProductionNo.
type ProductionRun struct {
	ID             string
	ProductionNo   string // PRD-000001
	OutputItemID   string
	OutputQuantity decimal.Decimal
	WarehouseID    string
	ProductionDate time.Time
	BOMID          string // vacío en modo manual
	Remarks        string
	Status         string
	TotalInputCost decimal.Decimal
	OutputUnitCost decimal.Decimal
	CreatedAt      time.Time
	CreatedBy      string

	// Cargados al consultar; no se persisten en la cabecera.
	Movements     []*StockMovement
	OutputBalance decimal.Decimal
}

// Inputs devuelve los movimientos de consumo (negativos).
func (p *ProductionRun) Inputs() []*StockMovement {
	var out []*StockMovement
	for _, m := range p.Movements {
		if m.Quantity.IsNegative() {
			out = append(out, m)
		}
	}
	return out
}

// Output devuelve el movimiento de salida (positivo), nil si no está cargado.
func (p *ProductionRun) Output() *StockMovement {
	for _, m := range p.Movements {
		if m.Quantity.IsPositive() {
			return m
		}
	}
	return nil
}
