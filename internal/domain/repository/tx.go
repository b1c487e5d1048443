package repository

import "context"

// Repos agrupa los repositorios atados a un mismo contexto de ejecución (pool o tx).
type Repos struct {
	Items       ItemRepository
	Warehouses  WarehouseRepository
	Movements   StockMovementRepository
	Stock       StockRepository
	BOMs        BOMRepository
	Productions ProductionRepository
	Sequences   SequenceRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback y nada de lo escrito queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
