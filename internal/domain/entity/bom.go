package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOM receta: OutputQuantity unidades del ítem de salida requieren las cantidades de Lines.
// Una receta usada en producción no se modifica; se crea una nueva versión.
type BOM struct {
	ID             string
	BOMNo          string // BOM-0001
	Name           string
	OutputItemID   string
	OutputQuantity decimal.Decimal
	Version        int
	SupersedesID   string // versión anterior, vacío si es la primera
	Lines          []BOMLine
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BOMLine insumo de la receta; Quantity es por lote de OutputQuantity, no por unidad.
type BOMLine struct {
	LineNo   int
	ItemID   string
	Quantity decimal.Decimal
}

// Requirement cantidad requerida de un insumo para una corrida.
type Requirement struct {
	ItemID   string
	Quantity decimal.Decimal
}
