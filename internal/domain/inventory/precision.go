package inventory

import "github.com/shopspring/decimal"

// Escalas de almacenamiento (NUMERIC(20,4)).
const (
	QuantityScale int32 = 4
	CostScale     int32 = 4
)

// RoundQuantity redondea una cantidad a la escala de almacenamiento.
func RoundQuantity(d decimal.Decimal) decimal.Decimal { return d.Round(QuantityScale) }

// RoundCost redondea un costo a la escala de almacenamiento.
func RoundCost(d decimal.Decimal) decimal.Decimal { return d.Round(CostScale) }
