package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// StockHistoryChecker responde si un ítem tiene movimientos o saldo (lo implementa el motor de inventario).
type StockHistoryChecker interface {
	HasStockHistory(ctx context.Context, itemID string) (bool, error)
}

// ItemUseCase casos de uso CRUD para el catálogo de ítems. El saldo y el costo promedio se manejan vía movimientos.
type ItemUseCase struct {
	repo    repository.ItemRepository
	boms    repository.BOMRepository
	history StockHistoryChecker
	log     zerolog.Logger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository, boms repository.BOMRepository, history StockHistoryChecker, log zerolog.Logger) *ItemUseCase {
	return &ItemUseCase{repo: repo, boms: boms, history: history, log: log}
}

// Create crea un nuevo ítem. El código es único.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := nonNegative(in.StandardCost, in.StandardPrice, in.ReorderLevel); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	item := &entity.Item{
		ID:             uuid.New().String(),
		Code:           code,
		Name:           strings.TrimSpace(in.Name),
		UnitMeasure:    in.UnitMeasure,
		StandardCost:   in.StandardCost,
		StandardPrice:  in.StandardPrice,
		IsRawMaterial:  in.IsRawMaterial,
		IsFinishedGood: in.IsFinishedGood,
		IsPurchased:    in.IsPurchased,
		IsManufactured: in.IsManufactured,
		ReorderLevel:   in.ReorderLevel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un ítem por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return toItemResponse(item), nil
}

// Update actualiza un ítem. El código no se modifica porque lo referencian planillas e importaciones.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.UnitMeasure != nil {
		item.UnitMeasure = *in.UnitMeasure
	}
	if in.StandardCost != nil {
		item.StandardCost = *in.StandardCost
	}
	if in.StandardPrice != nil {
		item.StandardPrice = *in.StandardPrice
	}
	if in.IsRawMaterial != nil {
		item.IsRawMaterial = *in.IsRawMaterial
	}
	if in.IsFinishedGood != nil {
		item.IsFinishedGood = *in.IsFinishedGood
	}
	if in.IsPurchased != nil {
		item.IsPurchased = *in.IsPurchased
	}
	if in.IsManufactured != nil {
		item.IsManufactured = *in.IsManufactured
	}
	if in.ReorderLevel != nil {
		item.ReorderLevel = *in.ReorderLevel
	}
	if item.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := nonNegative(item.StandardCost, item.StandardPrice, item.ReorderLevel); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// List lista ítems con paginación.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un ítem sin historial. Con movimientos o saldo devuelve ErrHasStockHistory;
// si alguna receta lo usa, ErrConflict.
func (uc *ItemUseCase) Delete(ctx context.Context, id string) error {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	has, err := uc.history.HasStockHistory(ctx, id)
	if err != nil {
		return err
	}
	if has {
		uc.log.Debug().Str("item_id", id).Msg("borrado rechazado: el ítem tiene historial")
		return domain.ErrHasStockHistory
	}
	used, err := uc.boms.ExistsByItem(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: el ítem está en una receta", domain.ErrConflict)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("item_id", id).Str("item_code", item.Code).Msg("ítem eliminado")
	return nil
}

func nonNegative(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.IsNegative() {
			return fmt.Errorf("%w: costos, precios y punto de reorden no pueden ser negativos", domain.ErrInvalidInput)
		}
	}
	return nil
}

func toItemResponse(i *entity.Item) *dto.ItemResponse {
	if i == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:             i.ID,
		Code:           i.Code,
		Name:           i.Name,
		UnitMeasure:    i.UnitMeasure,
		StandardCost:   i.StandardCost,
		StandardPrice:  i.StandardPrice,
		IsRawMaterial:  i.IsRawMaterial,
		IsFinishedGood: i.IsFinishedGood,
		IsPurchased:    i.IsPurchased,
		IsManufactured: i.IsManufactured,
		ReorderLevel:   i.ReorderLevel,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
