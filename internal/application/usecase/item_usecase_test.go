package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/application/usecase"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/memory"
)

type env struct {
	items      *usecase.ItemUseCase
	warehouses *usecase.WarehouseUseCase
	ledger     *inventory.Ledger
	registry   *bom.Registry
}

func newEnv() *env {
	store := memory.New()
	repos := store.Repos()
	ledger := inventory.NewLedger(store, repos, inventory.Options{}, zerolog.Nop(), nil)
	return &env{
		items:      usecase.NewItemUseCase(repos.Items, repos.BOMs, ledger, zerolog.Nop()),
		warehouses: usecase.NewWarehouseUseCase(repos.Warehouses),
		ledger:     ledger,
		registry:   bom.NewRegistry(store, repos, nil, zerolog.Nop()),
	}
}

func itemReq(code string) dto.CreateItemRequest {
	return dto.CreateItemRequest{Code: code, Name: "Ítem " + code, UnitMeasure: "Kg", StandardCost: decimal.NewFromInt(3)}
}

func TestItemUseCase_CrearYConsultar(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	created, err := e.items.Create(ctx, itemReq(" SEED "))
	require.NoError(t, err)
	assert.Equal(t, "SEED", created.Code)
	assert.NotEmpty(t, created.ID)

	got, err := e.items.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ítem SEED", got.Name)

	_, err = e.items.Create(ctx, itemReq("SEED"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.items.GetByID(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemUseCase_RechazaValoresNegativos(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	req := itemReq("OIL")
	req.ReorderLevel = decimal.NewFromInt(-1)
	_, err := e.items.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := e.items.Create(ctx, itemReq("OIL"))
	require.NoError(t, err)
	neg := decimal.NewFromInt(-5)
	_, err = e.items.Update(ctx, created.ID, dto.UpdateItemRequest{StandardCost: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	empty := " "
	_, err = e.items.Update(ctx, created.ID, dto.UpdateItemRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestItemUseCase_ActualizarNoCambiaCodigo(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	created, err := e.items.Create(ctx, itemReq("OIL"))
	require.NoError(t, err)

	name := "Aceite de girasol"
	level := decimal.NewFromInt(10)
	upd, err := e.items.Update(ctx, created.ID, dto.UpdateItemRequest{Name: &name, ReorderLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, "OIL", upd.Code)
	assert.Equal(t, name, upd.Name)
	assert.True(t, level.Equal(upd.ReorderLevel))
}

func TestItemUseCase_BorradoProtegidoPorHistorial(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	wh, err := e.warehouses.Create(ctx, dto.CreateWarehouseRequest{Code: "MAIN", Name: "Principal"})
	require.NoError(t, err)
	item, err := e.items.Create(ctx, itemReq("SEED"))
	require.NoError(t, err)

	_, err = e.ledger.RecordMovement(ctx, inventory.MovementInput{
		ItemID: item.ID, WarehouseID: wh.ID, Type: entity.MovementTypePurchase, Quantity: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, e.items.Delete(ctx, item.ID), domain.ErrHasStockHistory)
	_, err = e.items.GetByID(ctx, item.ID)
	assert.NoError(t, err)
}

func TestItemUseCase_BorradoProtegidoPorReceta(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seed, err := e.items.Create(ctx, itemReq("SEED"))
	require.NoError(t, err)
	oil, err := e.items.Create(ctx, itemReq("OIL"))
	require.NoError(t, err)
	_, err = e.registry.CreateBOM(ctx, bom.Input{
		Name: "Aceite", OutputItemID: oil.ID, OutputQuantity: decimal.NewFromInt(1),
		Lines: []bom.LineInput{{ItemID: seed.ID, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, e.items.Delete(ctx, seed.ID), domain.ErrConflict)
}

func TestItemUseCase_BorrarSinHistorial(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	item, err := e.items.Create(ctx, itemReq("TMP"))
	require.NoError(t, err)

	require.NoError(t, e.items.Delete(ctx, item.ID))
	_, err = e.items.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, e.items.Delete(ctx, item.ID), domain.ErrNotFound)
}

func TestWarehouseUseCase_CodigoUnicoYActualizacion(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	wh, err := e.warehouses.Create(ctx, dto.CreateWarehouseRequest{Code: "MAIN", Name: "Principal"})
	require.NoError(t, err)

	_, err = e.warehouses.Create(ctx, dto.CreateWarehouseRequest{Code: "MAIN", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	loc := "Planta 2"
	upd, err := e.warehouses.Update(ctx, wh.ID, dto.UpdateWarehouseRequest{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, loc, upd.Location)
	assert.Equal(t, "Principal", upd.Name)

	list, err := e.warehouses.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}
