package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// ScaleBOM calcula los requerimientos para producir desired unidades:
// requerido = línea.Cantidad * desired / receta.CantidadSalida.
// Se multiplica antes de dividir y se redondea una sola vez al final.
func ScaleBOM(bom *entity.BOM, desired decimal.Decimal) []entity.Requirement {
	out := make([]entity.Requirement, 0, len(bom.Lines))
	for _, l := range bom.Lines {
		qty := l.Quantity.Mul(desired).DivRound(bom.OutputQuantity, QuantityScale+8)
		out = append(out, entity.Requirement{ItemID: l.ItemID, Quantity: RoundQuantity(qty)})
	}
	return out
}
