package repository

import (
	"context"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar la proyección de saldos por ítem+bodega.
// Get y GetForUpdate devuelven saldo cero cuando no hay fila.
type StockRepository interface {
	Get(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	ListByItem(ctx context.Context, itemID string) ([]*entity.Stock, error)
	// ListByWarehouse lista saldos de una bodega; warehouseID vacío = todas.
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error)
	// LockAll bloquea la proyección completa contra escrituras concurrentes (reconstrucción).
	LockAll(ctx context.Context) error
	// ReplaceAll reemplaza toda la proyección (reconstrucción desde el log).
	ReplaceAll(ctx context.Context, stocks []*entity.Stock) error
}
