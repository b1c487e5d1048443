package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock saldo materializado de un ítem en una bodega (proyección de los movimientos).
// Se puede reconstruir en cualquier momento reproduciendo el log de movimientos.
type Stock struct {
	ItemID      string
	WarehouseID string
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal // costo promedio ponderado
	UpdatedAt   time.Time
}

// Key devuelve la llave (ítem, bodega) del saldo.
func (s *Stock) Key() StockKey {
	return StockKey{ItemID: s.ItemID, WarehouseID: s.WarehouseID}
}

// StockKey identifica un par (ítem, bodega).
type StockKey struct {
	ItemID      string
	WarehouseID string
}

// Less orden total usado para bloquear filas siempre en el mismo orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	return k.WarehouseID < o.WarehouseID
}
