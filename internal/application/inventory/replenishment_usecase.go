package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

const reorderPageSize = 200

// ReorderReport devuelve los ítems con saldo en o bajo su punto de reorden, con la
// cantidad sugerida de pedido. warehouseID vacío = saldo total entre bodegas.
func (l *Ledger) ReorderReport(ctx context.Context, warehouseID string) ([]dto.ReorderSuggestionDTO, error) {
	if warehouseID != "" {
		if err := ResolveWarehouse(ctx, l.repos, warehouseID); err != nil {
			return nil, err
		}
	}

	factor := decimal.RequireFromString("1.5")
	suggestions := []dto.ReorderSuggestionDTO{}
	for offset := 0; ; offset += reorderPageSize {
		items, err := l.repos.Items.List(ctx, reorderPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if !item.ReorderLevel.IsPositive() {
				continue
			}
			current, err := l.currentStock(ctx, item, warehouseID)
			if err != nil {
				return nil, err
			}
			if current.GreaterThan(item.ReorderLevel) {
				continue
			}
			ideal := item.ReorderLevel.Mul(factor)
			suggested := ideal.Sub(current)
			if suggested.IsNegative() {
				suggested = decimal.Zero
			}
			suggestions = append(suggestions, dto.ReorderSuggestionDTO{
				ItemID:             item.ID,
				Code:               item.Code,
				Name:               item.Name,
				UnitMeasure:        item.UnitMeasure,
				CurrentStock:       current,
				ReorderLevel:       item.ReorderLevel,
				IdealStock:         ideal,
				SuggestedOrderQty:  suggested,
				UnitCost:           item.StandardCost,
				EstimatedOrderCost: suggested.Mul(item.StandardCost).Round(4),
			})
		}
		if len(items) < reorderPageSize {
			break
		}
	}

	// Mayor déficit relativo primero; empate por código.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.CurrentStock.Div(a.ReorderLevel)
		rb := b.CurrentStock.Div(b.ReorderLevel)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.Code < b.Code
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func (l *Ledger) currentStock(ctx context.Context, item *entity.Item, warehouseID string) (decimal.Decimal, error) {
	if warehouseID != "" {
		s, err := l.repos.Stock.Get(ctx, item.ID, warehouseID)
		if err != nil {
			return decimal.Zero, err
		}
		return s.Quantity, nil
	}
	stocks, err := l.repos.Stock.ListByItem(ctx, item.ID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range stocks {
		total = total.Add(s.Quantity)
	}
	return total, nil
}
