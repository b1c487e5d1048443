package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// TransferInput entrada para trasladar stock entre bodegas.
type TransferInput struct {
	ItemID          string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Date            time.Time
	Remarks         string
	CreatedBy       string
	AllowNegative   bool
}

// RecordTransfer resta de la bodega origen y suma en la destino en la misma transacción.
// Ambos movimientos TRANSFER comparten la referencia TRF-xxxxxx y el costo promedio del origen.
func (l *Ledger) RecordTransfer(ctx context.Context, in TransferInput) ([]*entity.StockMovement, error) {
	movs, err := l.recordTransfer(ctx, in)
	if err != nil {
		l.metrics.OperationFailed("transfer", err)
		l.logFailure(err).Str("item_id", in.ItemID).Str("from", in.FromWarehouseID).
			Str("to", in.ToWarehouseID).Msg("traslado rechazado")
		return nil, err
	}
	for _, m := range movs {
		l.metrics.MovementRecorded(m.Type, m.Quantity)
	}
	l.log.Info().
		Str("reference", movs[0].Reference).
		Str("item_id", in.ItemID).
		Str("from", in.FromWarehouseID).
		Str("to", in.ToWarehouseID).
		Str("quantity", movs[1].Quantity.String()).
		Msg("traslado registrado")
	return movs, nil
}

func (l *Ledger) recordTransfer(ctx context.Context, in TransferInput) ([]*entity.StockMovement, error) {
	qty := inventory.RoundQuantity(in.Quantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, fmt.Errorf("%w: origen y destino iguales", domain.ErrInvalidInput)
	}
	allowNegative := l.allowNegative(in.AllowNegative)

	ctx, cancel := l.txContext(ctx)
	defer cancel()

	var out []*entity.StockMovement
	err := l.txRunner.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		item, err := ResolveItem(ctx, r, in.ItemID)
		if err != nil {
			return err
		}
		if err := ResolveWarehouse(ctx, r, in.FromWarehouseID); err != nil {
			return err
		}
		if err := ResolveWarehouse(ctx, r, in.ToWarehouseID); err != nil {
			return err
		}
		from := entity.StockKey{ItemID: in.ItemID, WarehouseID: in.FromWarehouseID}
		to := entity.StockKey{ItemID: in.ItemID, WarehouseID: in.ToWarehouseID}
		stocks, err := LockStocks(ctx, r, []entity.StockKey{from, to})
		if err != nil {
			return err
		}
		origin := stocks[from]
		if !allowNegative && origin.Quantity.LessThan(qty) {
			return &domain.InsufficientStockError{Shortages: []domain.Shortage{{
				ItemID: in.ItemID, WarehouseID: in.FromWarehouseID, Required: qty, Available: origin.Quantity,
			}}}
		}

		n, err := r.Sequences.Next(ctx, entity.SequenceTransfer)
		if err != nil {
			return err
		}
		ref := entity.TransferNumber(n)
		cost := inventory.OutwardCost(origin, item)
		date := l.date(in.Date)

		outMov := &entity.StockMovement{
			ItemID: in.ItemID, WarehouseID: in.FromWarehouseID, Type: entity.MovementTypeTransfer,
			Quantity: qty.Neg(), UnitCost: cost, MovementDate: date, Reference: ref,
			Remarks: in.Remarks, CreatedBy: in.CreatedBy,
		}
		if err := l.Post(ctx, r, origin, outMov, allowNegative); err != nil {
			return err
		}
		inMov := &entity.StockMovement{
			ItemID: in.ItemID, WarehouseID: in.ToWarehouseID, Type: entity.MovementTypeTransfer,
			Quantity: qty, UnitCost: cost, MovementDate: date, Reference: ref,
			Remarks: in.Remarks, CreatedBy: in.CreatedBy,
		}
		if err := l.Post(ctx, r, stocks[to], inMov, allowNegative); err != nil {
			return err
		}
		out = []*entity.StockMovement{outMov, inMov}
		return nil
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	return out, nil
}
