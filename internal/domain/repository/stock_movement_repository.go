package repository

import (
	"context"
	"time"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ItemID      string
	WarehouseID string
	Type        string
	Reference   string
	From        *time.Time // fecha inclusive
	To          *time.Time // fecha inclusive
}

// MovementCursor posición de keyset: la página siguiente empieza estrictamente después de (Date, No)
// en orden fecha DESC, número DESC.
type MovementCursor struct {
	Date time.Time
	No   int64
}

// StockMovementRepository puerto del log de movimientos (solo inserción).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// List devuelve hasta limit movimientos ordenados por fecha DESC, número DESC.
	List(ctx context.Context, filter MovementFilter, after *MovementCursor, limit int) ([]*entity.StockMovement, error)
	// ListByReference devuelve los movimientos de un documento ordenados por número ASC.
	ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error)
	// Scan recorre los movimientos en orden de número ASC (orden de registro).
	Scan(ctx context.Context, filter MovementFilter, fn func(*entity.StockMovement) error) error
	CountByItem(ctx context.Context, itemID string) (int64, error)
}
