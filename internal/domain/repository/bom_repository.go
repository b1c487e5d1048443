package repository

import (
	"context"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// BOMRepository puerto de persistencia para recetas con sus líneas.
type BOMRepository interface {
	Create(ctx context.Context, bom *entity.BOM) error
	GetByID(ctx context.Context, id string) (*entity.BOM, error)
	// GetForShare lee la receta bloqueándola contra modificaciones hasta el fin de la tx.
	GetForShare(ctx context.Context, id string) (*entity.BOM, error)
	// GetForUpdate lee la receta con bloqueo exclusivo hasta el fin de la tx.
	GetForUpdate(ctx context.Context, id string) (*entity.BOM, error)
	// List filtra por ítem de salida cuando outputItemID no está vacío.
	List(ctx context.Context, outputItemID string, limit, offset int) ([]*entity.BOM, error)
	// Update reemplaza nombre, cantidad de salida y líneas.
	Update(ctx context.Context, bom *entity.BOM) error
	Delete(ctx context.Context, id string) error
	// ExistsByItem indica si el ítem aparece como salida o insumo de alguna receta.
	ExistsByItem(ctx context.Context, itemID string) (bool, error)
}
