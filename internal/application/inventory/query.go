package inventory

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// GetBalance devuelve el saldo de (ítem, bodega) desde la proyección.
func (l *Ledger) GetBalance(ctx context.Context, itemID, warehouseID string) (decimal.Decimal, error) {
	s, err := l.GetStock(ctx, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Quantity, nil
}

// GetStock devuelve saldo y costo promedio de (ítem, bodega).
func (l *Ledger) GetStock(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	if _, err := ResolveItem(ctx, l.repos, itemID); err != nil {
		return nil, err
	}
	if err := ResolveWarehouse(ctx, l.repos, warehouseID); err != nil {
		return nil, err
	}
	return l.repos.Stock.Get(ctx, itemID, warehouseID)
}

// StocksByItem devuelve los saldos de un ítem en todas las bodegas con fila de saldo.
func (l *Ledger) StocksByItem(ctx context.Context, itemID string) ([]*entity.Stock, error) {
	return l.repos.Stock.ListByItem(ctx, itemID)
}

// ReplayBalance recalcula (ítem, bodega) reproduciendo el log, sin tocar la proyección.
func (l *Ledger) ReplayBalance(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	s := &entity.Stock{ItemID: itemID, WarehouseID: warehouseID}
	err := l.repos.Movements.Scan(ctx, repository.MovementFilter{ItemID: itemID, WarehouseID: warehouseID},
		func(m *entity.StockMovement) error {
			inventory.Apply(s, m)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Movements devuelve una secuencia perezosa de movimientos ordenada por fecha DESC y número DESC.
// Se pagina internamente por keyset; cada iteración vuelve a empezar desde el inicio.
func (l *Ledger) Movements(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.StockMovement, error] {
	return func(yield func(*entity.StockMovement, error) bool) {
		var after *repository.MovementCursor
		for {
			page, err := l.repos.Movements.List(ctx, filter, after, l.opts.PageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < l.opts.PageSize {
				return
			}
			last := page[len(page)-1]
			after = &repository.MovementCursor{Date: last.MovementDate, No: last.MovementNo}
		}
	}
}

// ListMovements devuelve una página y el cursor de la siguiente (nil si no hay más).
func (l *Ledger) ListMovements(ctx context.Context, filter repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.StockMovement, *repository.MovementCursor, error) {
	if limit <= 0 {
		limit = l.opts.PageSize
	}
	page, err := l.repos.Movements.List(ctx, filter, after, limit+1)
	if err != nil {
		return nil, nil, err
	}
	if len(page) <= limit {
		return page, nil, nil
	}
	page = page[:limit]
	last := page[limit-1]
	return page, &repository.MovementCursor{Date: last.MovementDate, No: last.MovementNo}, nil
}

// MovementsByReference devuelve los movimientos de un documento (corrida, traslado).
func (l *Ledger) MovementsByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error) {
	return l.repos.Movements.ListByReference(ctx, reference)
}

// HasStockHistory indica si el ítem tiene algún movimiento o saldo distinto de cero en cualquier bodega.
// El catálogo lo usa para rechazar el borrado con ErrHasStockHistory.
func (l *Ledger) HasStockHistory(ctx context.Context, itemID string) (bool, error) {
	if itemID == "" {
		return false, domain.ErrUnknownItem
	}
	n, err := l.repos.Movements.CountByItem(ctx, itemID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	stocks, err := l.repos.Stock.ListByItem(ctx, itemID)
	if err != nil {
		return false, err
	}
	for _, s := range stocks {
		if !s.Quantity.IsZero() {
			return true, nil
		}
	}
	return false, nil
}
