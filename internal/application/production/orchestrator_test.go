package production_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/application/production"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "esperado %s, obtenido %s", want, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: semilla (Kg), sal (Kg) y aceite (Ltr) en la bodega MAIN
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store    *memory.Store
	repos    repository.Repos
	ledger   *inventory.Ledger
	registry *bom.Registry
	orch     *production.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	repos := store.Repos()
	ctx := context.Background()
	for _, it := range []*entity.Item{
		{ID: "seed", Code: "SEED", Name: "Semilla", UnitMeasure: "Kg", StandardCost: dec("1")},
		{ID: "salt", Code: "SALT", Name: "Sal", UnitMeasure: "Kg"},
		{ID: "oil", Code: "OIL", Name: "Aceite", UnitMeasure: "Ltr", StandardCost: dec("12")},
		{ID: "soap", Code: "SOAP", Name: "Jabón", UnitMeasure: "Pcs"},
	} {
		require.NoError(t, repos.Items.Create(ctx, it))
	}
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: "main", Code: "MAIN", Name: "Principal"}))

	log := zerolog.Nop()
	ledger := inventory.NewLedger(store, repos, inventory.Options{}, log, nil)
	return &fixture{
		store:    store,
		repos:    repos,
		ledger:   ledger,
		registry: bom.NewRegistry(store, repos, nil, log),
		orch:     production.NewOrchestrator(ledger, store, repos, log, nil),
	}
}

func (f *fixture) purchase(t *testing.T, item, qty string) {
	t.Helper()
	_, err := f.ledger.RecordMovement(context.Background(), inventory.MovementInput{
		ItemID: item, WarehouseID: "main", Type: entity.MovementTypePurchase, Quantity: dec(qty),
	})
	require.NoError(t, err)
}

func (f *fixture) oilBOM(t *testing.T) *entity.BOM {
	t.Helper()
	b, err := f.registry.CreateBOM(context.Background(), bom.Input{
		Name: "Aceite prensado", OutputItemID: "oil", OutputQuantity: dec("1"),
		Lines: []bom.LineInput{{ItemID: "seed", Quantity: dec("10")}},
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) balance(t *testing.T, item string) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), item, "main")
	require.NoError(t, err)
	return b
}

func (f *fixture) movementCount(t *testing.T) int {
	t.Helper()
	n := 0
	for _, err := range f.ledger.Movements(context.Background(), repository.MovementFilter{Type: entity.MovementTypeProduction}) {
		require.NoError(t, err)
		n++
	}
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordProduction
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordProduction_CienKilosDeSemillaDanDiezLitros(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)

	run, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("10"), WarehouseID: "main", BOMID: b.ID, CreatedBy: "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "PRD-000001", run.ProductionNo)
	assert.Equal(t, entity.ProductionStatusCommitted, run.Status)
	require.Len(t, run.Movements, 2)
	for _, m := range run.Movements {
		assert.Equal(t, run.ProductionNo, m.Reference)
		assert.Equal(t, entity.MovementTypeProduction, m.Type)
		assert.Equal(t, "ana", m.CreatedBy)
	}
	assert.Equal(t, run.Movements[0].MovementNo+1, run.Movements[1].MovementNo)

	assertDec(t, "-100", run.Inputs()[0].Quantity)
	assertDec(t, "10", run.Output().Quantity)
	assertDec(t, "100", run.TotalInputCost)
	assertDec(t, "10", run.OutputUnitCost)

	assertDec(t, "0", f.balance(t, "seed"))
	assertDec(t, "10", f.balance(t, "oil"))

	s, err := f.ledger.GetStock(context.Background(), "oil", "main")
	require.NoError(t, err)
	assertDec(t, "10", s.AverageCost)
}

func TestRecordProduction_InsumosExplicitos(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "20")
	f.purchase(t, "salt", "5")

	run, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "soap", OutputQuantity: dec("4"), WarehouseID: "main",
		Inputs: []production.InputLine{{ItemID: "seed", Quantity: dec("8")}, {ItemID: "salt", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Len(t, run.Inputs(), 2)
	assertDec(t, "12", f.balance(t, "seed"))
	assertDec(t, "4", f.balance(t, "salt"))
	assertDec(t, "4", f.balance(t, "soap"))
	// 8 * 1 + 1 * 0 = 8 / 4 = 2
	assertDec(t, "2", run.OutputUnitCost)
}

func TestRecordProduction_SinCostoDeInsumosUsaCostoEstandarDelProducto(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "salt", "5")

	run, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main",
		Inputs: []production.InputLine{{ItemID: "salt", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assertDec(t, "12", run.OutputUnitCost)
}

func TestRecordProduction_FaltantesSeReportanTodosYNoHayMovimientos(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "3")

	_, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "soap", OutputQuantity: dec("1"), WarehouseID: "main",
		Inputs: []production.InputLine{{ItemID: "seed", Quantity: dec("5")}, {ItemID: "salt", Quantity: dec("2")}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Len(t, short.Shortages, 2)
	assert.Equal(t, "seed", short.Shortages[0].ItemID)
	assertDec(t, "5", short.Shortages[0].Required)
	assertDec(t, "3", short.Shortages[0].Available)
	assert.Equal(t, "salt", short.Shortages[1].ItemID)

	assert.Zero(t, f.movementCount(t))
	assertDec(t, "3", f.balance(t, "seed"))
	runs, err := f.orch.ListProductions(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordProduction_FalloAMitadDeEscrituraNoDejaNada(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)
	f.store.FailOn("movements.create", 2, errors.New("conexión perdida"))

	_, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("10"), WarehouseID: "main", BOMID: b.ID,
	})
	require.ErrorIs(t, err, domain.ErrCommitFailed)
	assert.Zero(t, f.movementCount(t))
	assertDec(t, "100", f.balance(t, "seed"))
	assertDec(t, "0", f.balance(t, "oil"))

	// la numeración tampoco avanzó
	run, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("10"), WarehouseID: "main", BOMID: b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "PRD-000001", run.ProductionNo)
	assert.Equal(t, int64(2), run.Movements[0].MovementNo)
}

func TestRecordProduction_LeeLaRecetaConBloqueo(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)
	f.store.FailOn("boms.lock", 1, errors.New("lock timeout"))

	_, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("10"), WarehouseID: "main", BOMID: b.ID,
	})
	require.ErrorIs(t, err, domain.ErrCommitFailed)
	assert.Zero(t, f.movementCount(t))
	assertDec(t, "100", f.balance(t, "seed"))
}

func TestRecordProduction_ConcurrentesNoSobregiranElStock(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "35")
	b := f.oilBOM(t)

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		shortage int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.RecordProduction(context.Background(), production.Input{
				OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				shortage++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	// cada corrida consume 10 kg de semilla: con 35 kg solo caben 3
	assert.Equal(t, 3, ok)
	assert.Equal(t, workers-3, shortage)
	assertDec(t, "5", f.balance(t, "seed"))
	assertDec(t, "3", f.balance(t, "oil"))

	runs, err := f.orch.ListProductions(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	rep, err := f.ledger.VerifyBalances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Drifted)
}

func TestRecordProduction_ErroresDeEntrada(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)

	cases := []struct {
		name string
		in   production.Input
		want error
	}{
		{"receta e insumos", production.Input{OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID,
			Inputs: []production.InputLine{{ItemID: "seed", Quantity: dec("1")}}}, domain.ErrAmbiguousProductionInput},
		{"ni receta ni insumos", production.Input{OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main"}, domain.ErrAmbiguousProductionInput},
		{"cantidad cero", production.Input{OutputItemID: "oil", OutputQuantity: decimal.Zero, WarehouseID: "main", BOMID: b.ID}, domain.ErrInvalidQuantity},
		{"receta de otro producto", production.Input{OutputItemID: "soap", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID}, domain.ErrBOMOutputMismatch},
		{"receta desconocida", production.Input{OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: "x"}, domain.ErrBOMNotFound},
		{"bodega desconocida", production.Input{OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "x", BOMID: b.ID}, domain.ErrUnknownWarehouse},
		{"insumo repetido", production.Input{OutputItemID: "soap", OutputQuantity: dec("1"), WarehouseID: "main",
			Inputs: []production.InputLine{{ItemID: "seed", Quantity: dec("1")}, {ItemID: "seed", Quantity: dec("2")}}}, domain.ErrDuplicateInputLine},
		{"insumo desconocido", production.Input{OutputItemID: "soap", OutputQuantity: dec("1"), WarehouseID: "main",
			Inputs: []production.InputLine{{ItemID: "zzz", Quantity: dec("1")}}}, domain.ErrUnknownItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orch.RecordProduction(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, f.movementCount(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetProduction_CargaMovimientosYSaldo(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)
	run, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("10"), WarehouseID: "main", BOMID: b.ID,
	})
	require.NoError(t, err)

	got, err := f.orch.GetProduction(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Movements, 2)
	assertDec(t, "10", got.OutputBalance)
	assert.Equal(t, b.ID, got.BOMID)

	_, err = f.orch.GetProduction(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordFromRequest_ResuelveNombres(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)

	resp, err := f.orch.RecordFromRequest(context.Background(), "ana", dto.RecordProductionRequest{
		OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID, ProductionDate: "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Aceite", resp.OutputItemName)
	assert.Equal(t, "Ltr", resp.OutputUOM)
	assert.Equal(t, "2024-05-01", resp.ProductionDate)
	require.Len(t, resp.Inputs, 1)
	assert.Equal(t, "Semilla", resp.Inputs[0].ItemName)
	assertDec(t, "10", resp.Inputs[0].Quantity)

	_, err = f.orch.RecordFromRequest(context.Background(), "ana", dto.RecordProductionRequest{
		OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID, ProductionDate: "ayer",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordProduction_RecetaUsadaNoSePuedeEditar(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, "seed", "100")
	b := f.oilBOM(t)
	_, err := f.orch.RecordProduction(context.Background(), production.Input{
		OutputItemID: "oil", OutputQuantity: dec("1"), WarehouseID: "main", BOMID: b.ID,
	})
	require.NoError(t, err)

	_, err = f.registry.UpdateBOM(context.Background(), b.ID, bom.Input{
		Name: "otra", OutputItemID: "oil", OutputQuantity: dec("1"),
		Lines: []bom.LineInput{{ItemID: "seed", Quantity: dec("9")}},
	})
	assert.ErrorIs(t, err, domain.ErrBOMInUse)
}
