package repository

import (
	"context"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// ProductionRepository puerto para las cabeceras de corridas de producción.
// Los movimientos de la corrida viven en el log (Reference = ProductionNo).
type ProductionRepository interface {
	Create(ctx context.Context, run *entity.ProductionRun) error
	GetByID(ctx context.Context, id string) (*entity.ProductionRun, error)
	List(ctx context.Context, limit, offset int) ([]*entity.ProductionRun, error)
	ExistsByBOM(ctx context.Context, bomID string) (bool, error)
}
