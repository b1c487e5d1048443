package repository

import (
	"context"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// GetByID/GetByCode devuelven (nil, nil) cuando no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
	Delete(ctx context.Context, id string) error
}
