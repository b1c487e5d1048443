package production

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// RecordFromRequest adapta el body de POST /api/productions y devuelve la corrida con nombres resueltos.
func (o *Orchestrator) RecordFromRequest(ctx context.Context, userID string, in dto.RecordProductionRequest) (*dto.ProductionResponse, error) {
	date, err := dto.ParseDate(in.ProductionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	inputs := make([]InputLine, 0, len(in.InputItems))
	for _, l := range in.InputItems {
		inputs = append(inputs, InputLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	run, err := o.RecordProduction(ctx, Input{
		OutputItemID:   in.OutputItemID,
		OutputQuantity: in.OutputQuantity,
		WarehouseID:    in.WarehouseID,
		Date:           date,
		BOMID:          in.BOMID,
		Inputs:         inputs,
		Remarks:        in.Remarks,
		CreatedBy:      userID,
		AllowNegative:  in.AllowNegative,
	})
	if err != nil {
		return nil, err
	}
	return o.ToResponse(ctx, run)
}

// ToResponse mapea la corrida resolviendo nombre y unidad del producto y de cada insumo.
func (o *Orchestrator) ToResponse(ctx context.Context, run *entity.ProductionRun) (*dto.ProductionResponse, error) {
	resp := &dto.ProductionResponse{
		ID:             run.ID,
		ProductionNo:   run.ProductionNo,
		OutputItemID:   run.OutputItemID,
		OutputQuantity: run.OutputQuantity,
		WarehouseID:    run.WarehouseID,
		ProductionDate: dto.FormatDate(run.ProductionDate),
		BOMID:          run.BOMID,
		Remarks:        run.Remarks,
		Status:         run.Status,
		TotalInputCost: run.TotalInputCost,
		OutputUnitCost: run.OutputUnitCost,
		OutputBalance:  run.OutputBalance,
		Inputs:         []dto.ProductionLineResponse{},
		Movements:      dto.MovementsFromEntities(run.Movements),
		CreatedBy:      run.CreatedBy,
		CreatedAt:      run.CreatedAt,
	}
	names := map[string]*entity.Item{}
	lookup := func(id string) (*entity.Item, error) {
		if it, ok := names[id]; ok {
			return it, nil
		}
		it, err := o.repos.Items.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		names[id] = it
		return it, nil
	}
	out, err := lookup(run.OutputItemID)
	if err != nil {
		return nil, err
	}
	if out != nil {
		resp.OutputItemName = out.Name
		resp.OutputUOM = out.UnitMeasure
	}
	for _, m := range run.Inputs() {
		line := dto.ProductionLineResponse{
			MovementNo: m.MovementNo,
			ItemID:     m.ItemID,
			Quantity:   m.Quantity.Neg(),
			UnitCost:   m.UnitCost,
			TotalCost:  m.TotalCost.Neg(),
		}
		it, err := lookup(m.ItemID)
		if err != nil {
			return nil, err
		}
		if it != nil {
			line.ItemName = it.Name
			line.UnitMeasure = it.UnitMeasure
		}
		resp.Inputs = append(resp.Inputs, line)
	}
	return resp, nil
}

func isCommitFailed(err error) bool {
	return errors.Is(err, domain.ErrCommitFailed)
}
