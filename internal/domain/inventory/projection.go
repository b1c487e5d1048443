package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// Apply proyecta un movimiento sobre el saldo: suma la cantidad y, en entradas,
// recalcula el costo promedio ponderado. Es la única regla usada tanto al registrar
// como al reconstruir, por eso la reconstrucción reproduce el mismo resultado.
func Apply(s *entity.Stock, m *entity.StockMovement) {
	if m.Inward() {
		s.AverageCost = CostCalculator(s.Quantity, s.AverageCost, m.Quantity, m.UnitCost)
	}
	s.Quantity = s.Quantity.Add(m.Quantity)
}

// TotalCost valor del movimiento redondeado.
func TotalCost(qty, unitCost decimal.Decimal) decimal.Decimal {
	return RoundCost(qty.Mul(unitCost))
}

// OutwardCost costo unitario para una salida: promedio vigente o, si aún no hay, el costo estándar.
func OutwardCost(s *entity.Stock, item *entity.Item) decimal.Decimal {
	if s != nil && s.AverageCost.IsPositive() {
		return s.AverageCost
	}
	return item.StandardCost
}
