package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo actual de un ítem en una bodega; cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT item_id, warehouse_id, quantity, average_cost, updated_at
		FROM stock WHERE item_id = $1 AND warehouse_id = $2`
	return r.getOne(ctx, query, itemID, warehouseID)
}

// GetForUpdate materializa la fila si no existe y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
// El INSERT previo garantiza que dos transacciones sobre un par nuevo también se serialicen.
func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (item_id, warehouse_id, quantity, average_cost, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`, itemID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	query := `
		SELECT item_id, warehouse_id, quantity, average_cost, updated_at
		FROM stock WHERE item_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.getOne(ctx, query, itemID, warehouseID)
}

func (r *StockRepo) getOne(ctx context.Context, query, itemID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, itemID, warehouseID).Scan(
		&s.ItemID, &s.WarehouseID, &s.Quantity, &s.AverageCost, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ItemID: itemID, WarehouseID: warehouseID}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza saldo y costo promedio (por ítem y bodega).
func (r *StockRepo) Upsert(ctx context.Context, s *entity.Stock) error {
	query := `
		INSERT INTO stock (item_id, warehouse_id, quantity, average_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, average_cost = EXCLUDED.average_cost, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, s.ItemID, s.WarehouseID, s.Quantity, s.AverageCost, s.UpdatedAt); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByItem saldos del ítem en todas las bodegas.
func (r *StockRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Stock, error) {
	return r.list(ctx, `
		SELECT item_id, warehouse_id, quantity, average_cost, updated_at
		FROM stock WHERE item_id = $1 ORDER BY warehouse_id`, itemID)
}

// ListByWarehouse saldos de una bodega; vacío = toda la proyección.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error) {
	return r.list(ctx, `
		SELECT item_id, warehouse_id, quantity, average_cost, updated_at
		FROM stock WHERE ($1 = '' OR warehouse_id = $1) ORDER BY item_id, warehouse_id`, warehouseID)
}

// LockAll bloquea la tabla contra escrituras hasta el fin de la tx; las lecturas siguen.
func (r *StockRepo) LockAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `LOCK TABLE stock IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	return nil
}

// ReplaceAll reemplaza la proyección completa en la transacción en curso.
func (r *StockRepo) ReplaceAll(ctx context.Context, stocks []*entity.Stock) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock`); err != nil {
		return fmt.Errorf("clear stock: %w", err)
	}
	for _, s := range stocks {
		if err := r.Upsert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *StockRepo) list(ctx context.Context, query string, arg string) ([]*entity.Stock, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ItemID, &s.WarehouseID, &s.Quantity, &s.AverageCost, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
