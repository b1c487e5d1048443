package inventory

import (
	"context"
	"fmt"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
)

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement(ctx, MovementInput).
// userID es el actor libre que queda en CreatedBy (puede ser vacío).
func (l *Ledger) RecordMovementFromRequest(ctx context.Context, userID string, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	date, err := dto.ParseDate(in.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	mov, err := l.RecordMovement(ctx, MovementInput{
		ItemID:        in.ItemID,
		WarehouseID:   in.WarehouseID,
		Type:          in.MovementType,
		Quantity:      in.Quantity,
		Date:          date,
		UnitCost:      in.UnitCost,
		Reference:     in.Reference,
		Remarks:       in.Remarks,
		CreatedBy:     userID,
		AllowNegative: in.AllowNegative,
	})
	if err != nil {
		return nil, err
	}
	out := dto.MovementFromEntity(mov)
	return &out, nil
}

// RecordTransferFromRequest adapta el request HTTP al caso de uso RecordTransfer.
func (l *Ledger) RecordTransferFromRequest(ctx context.Context, userID string, in dto.TransferRequest) (*dto.TransferResponse, error) {
	date, err := dto.ParseDate(in.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	movs, err := l.RecordTransfer(ctx, TransferInput{
		ItemID:          in.ItemID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Date:            date,
		Remarks:         in.Remarks,
		CreatedBy:       userID,
		AllowNegative:   in.AllowNegative,
	})
	if err != nil {
		return nil, err
	}
	return &dto.TransferResponse{
		Reference: movs[0].Reference,
		Movements: dto.MovementsFromEntities(movs),
	}, nil
}
