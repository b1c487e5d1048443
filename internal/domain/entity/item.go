package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un ítem de inventario (materia prima, producto terminado o ambos).
// El motor de inventario solo lee sus banderas y costos; el saldo vive en Stock.
type Item struct {
	ID             string
	Code           string // código único
	Name           string
	UnitMeasure    string // Kg, Ltr, Pcs...
	StandardCost   decimal.Decimal
	StandardPrice  decimal.Decimal
	IsRawMaterial  bool
	IsFinishedGood bool
	IsPurchased    bool
	IsManufactured bool
	ReorderLevel   decimal.Decimal // 0 = sin punto de reorden
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
