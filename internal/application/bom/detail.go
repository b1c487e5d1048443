package bom

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// GetBOM devuelve la receta con nombres y unidades resueltos y el stock actual de cada insumo
// en warehouseID (suma de todas las bodegas si está vacío).
func (r *Registry) GetBOM(ctx context.Context, id, warehouseID string) (*dto.BOMResponse, error) {
	b, err := load(ctx, r.repos, id)
	if err != nil {
		return nil, err
	}
	if warehouseID != "" {
		wh, err := r.repos.Warehouses.GetByID(ctx, warehouseID)
		if err != nil {
			return nil, err
		}
		if wh == nil {
			return nil, domain.ErrUnknownWarehouse
		}
	}
	inUse, err := r.InUse(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(b, inUse)
	if out, err := r.repos.Items.GetByID(ctx, b.OutputItemID); err != nil {
		return nil, err
	} else if out != nil {
		resp.FinishedItemName = out.Name
		resp.FinishedItemUOM = out.UnitMeasure
	}
	for i := range resp.Items {
		line := &resp.Items[i]
		item, err := r.repos.Items.GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			line.ItemCode = item.Code
			line.ItemName = item.Name
			line.UnitMeasure = item.UnitMeasure
		}
		stock, err := r.stockSnapshot(ctx, line.ItemID, warehouseID)
		if err != nil {
			return nil, err
		}
		line.CurrentStock = &stock
	}
	return resp, nil
}

func (r *Registry) stockSnapshot(ctx context.Context, itemID, warehouseID string) (decimal.Decimal, error) {
	if warehouseID != "" {
		s, err := r.repos.Stock.Get(ctx, itemID, warehouseID)
		if err != nil {
			return decimal.Zero, err
		}
		return s.Quantity, nil
	}
	stocks, err := r.repos.Stock.ListByItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range stocks {
		total = total.Add(s.Quantity)
	}
	return total, nil
}

// InputFromRequest adapta el body HTTP a Input.
func InputFromRequest(in dto.CreateBOMRequest) Input {
	lines := make([]LineInput, 0, len(in.Items))
	for _, l := range in.Items {
		lines = append(lines, LineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return Input{Name: in.BOMName, OutputItemID: in.FinishedItemID, OutputQuantity: in.Quantity, Lines: lines}
}

// ToResponse mapea la receta sin resolver nombres.
func ToResponse(b *entity.BOM, inUse bool) *dto.BOMResponse {
	items := make([]dto.BOMLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		items = append(items, dto.BOMLineResponse{LineNo: l.LineNo, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return &dto.BOMResponse{
		ID:             b.ID,
		BOMNo:          b.BOMNo,
		BOMName:        b.Name,
		FinishedItemID: b.OutputItemID,
		Quantity:       b.OutputQuantity,
		Version:        b.Version,
		SupersedesID:   b.SupersedesID,
		InUse:          inUse,
		Items:          items,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// RequirementsToResponse mapea el resultado de Expand.
func RequirementsToResponse(bomID string, qty decimal.Decimal, reqs []entity.Requirement) *dto.ExpandResponse {
	out := make([]dto.RequirementResponse, 0, len(reqs))
	for _, q := range reqs {
		out = append(out, dto.RequirementResponse{ItemID: q.ItemID, Quantity: q.Quantity})
	}
	return &dto.ExpandResponse{BOMID: bomID, Quantity: qty, Requirements: out}
}
