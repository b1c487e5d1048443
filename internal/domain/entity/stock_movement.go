package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypePurchase   = "PURCHASE"   // compra
	MovementTypeSale       = "SALE"       // venta
	MovementTypeProduction = "PRODUCTION" // consumo de insumos / salida de producción
	MovementTypeTransfer   = "TRANSFER"   // traslado entre bodegas
	MovementTypeAdjustment = "ADJUSTMENT" // ajuste o corrección
)

// ValidMovementType indica si t es un tipo de movimiento conocido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypePurchase, MovementTypeSale, MovementTypeProduction,
		MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement movimiento inmutable sobre el par (ítem, bodega).
// Quantity positivo = entrada, negativo = salida.
type StockMovement struct {
	ID           string
	MovementNo   int64 // secuencia global, sin huecos
	ItemID       string
	WarehouseID  string
	Type         string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	TotalCost    decimal.Decimal
	MovementDate time.Time // solo fecha (UTC, 00:00)
	Reference    string    // documento origen: PRD-000001, TRF-000001, id de compra...
	Remarks      string
	CreatedAt    time.Time
	CreatedBy    string
}

// Inward indica si el movimiento suma al saldo.
func (m *StockMovement) Inward() bool {
	return m.Quantity.IsPositive()
}

// DateOnly normaliza t a la fecha calendario en UTC.
func DateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
