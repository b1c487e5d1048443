package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
	"github.com/mfbgull/mini-erp-sub003/internal/application/production"
	"github.com/mfbgull/mini-erp-sub003/internal/application/usecase"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/memory"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/xlsx"
	apphttp "github.com/mfbgull/mini-erp-sub003/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	app   *fiber.App
	store *memory.Store
}

// newTestEnv arma la API completa sobre el store en memoria.
func newTestEnv(t *testing.T, idem ports.IdempotencyStore) *testEnv {
	t.Helper()
	store := memory.New()
	repos := store.Repos()
	log := zerolog.Nop()
	ledger := inventory.NewLedger(store, repos, inventory.Options{AllowNegativeOverride: true}, log, nil)
	registry := bom.NewRegistry(store, repos, xlsx.NewBOMLineParser(), log)
	orch := production.NewOrchestrator(ledger, store, repos, log, nil)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:         ledger,
		Registry:       registry,
		Orchestrator:   orch,
		ItemUC:         usecase.NewItemUseCase(repos.Items, repos.BOMs, ledger, log),
		WarehouseUC:    usecase.NewWarehouseUseCase(repos.Warehouses),
		Idempotency:    idem,
		IdempotencyTTL: time.Minute,
		Log:            log,
	})
	return &testEnv{app: app, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) createItem(t *testing.T, code, uom string, cost string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/items", fiber.Map{
		"item_code": code, "item_name": code, "unit_of_measure": uom, "standard_cost": cost,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.ItemResponse](t, resp).ID
}

func (e *testEnv) createWarehouse(t *testing.T, code string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/warehouses", fiber.Map{"warehouse_code": code, "warehouse_name": code})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.WarehouseResponse](t, resp).ID
}

func (e *testEnv) move(t *testing.T, itemID, whID, typ, qty string, headers ...string) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/movements", fiber.Map{
		"item_id": itemID, "warehouse_id": whID, "movement_type": typ, "quantity": qty,
		"transaction_date": "2024-03-01",
	}, headers...)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos y saldos
// ──────────────────────────────────────────────────────────────────────────────

func TestMovements_CompraYVentaActualizanSaldo(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")

	resp := env.move(t, item, wh, "PURCHASE", "500", apphttp.HeaderUserID, "ana")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	mov := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, "ana", mov.CreatedBy)
	assert.Equal(t, "2024-03-01", mov.TransactionDate)

	resp = env.move(t, item, wh, "SALE", "-50")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/balances?item_id="+item+"&warehouse_id="+wh, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	bal := decode[dto.BalanceListResponse](t, resp)
	assert.True(t, bal.Total.Equal(dec("450")), "saldo esperado 450, obtenido %s", bal.Total)
}

func TestMovements_VentaSinStockDevuelve409ConFaltante(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	require.Equal(t, fiber.StatusCreated, env.move(t, item, wh, "PURCHASE", "10").StatusCode)

	resp := env.move(t, item, wh, "SALE", "-11")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decode[struct {
		Code    string            `json:"code"`
		Details []dto.ShortageDTO `json:"details"`
	}](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	require.Len(t, body.Details, 1)
	assert.True(t, body.Details[0].Required.Equal(dec("11")))
	assert.True(t, body.Details[0].Available.Equal(dec("10")))
}

func TestMovements_TipoInvalidoDevuelve400(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.move(t, "x", "y", "GIFT", "1")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestMovements_BodegaDesconocidaDevuelve404(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	resp := env.move(t, item, "no-existe", "PURCHASE", "1")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_WAREHOUSE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestMovements_FalloDeEscrituraDevuelve503(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	env.store.FailOn("stock.upsert", 1, errors.New("disco lleno"))

	resp := env.move(t, item, wh, "PURCHASE", "10")
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "COMMIT_FAILED", decode[dto.ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodGet, "/api/movements?item_id="+item, nil)
	list := decode[dto.MovementListResponse](t, resp)
	assert.Empty(t, list.Items, "el movimiento no debe quedar registrado")
}

func TestMovements_ListadoPaginadoConCursor(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	for i := 0; i < 5; i++ {
		require.Equal(t, fiber.StatusCreated, env.move(t, item, wh, "PURCHASE", "1").StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/movements?item_id="+item+"&limit=3", nil)
	first := decode[dto.MovementListResponse](t, resp)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)
	assert.Greater(t, first.Items[0].MovementNo, first.Items[1].MovementNo)

	resp = env.do(t, http.MethodGet, "/api/movements?item_id="+item+"&limit=3&cursor="+first.NextCursor, nil)
	second := decode[dto.MovementListResponse](t, resp)
	require.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)
	assert.Less(t, second.Items[0].MovementNo, first.Items[2].MovementNo)
}

func TestMovements_LimiteMayorAlTopeSeRecorta(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	for i := 0; i < 60; i++ {
		require.Equal(t, fiber.StatusCreated, env.move(t, item, wh, "PURCHASE", "1").StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/movements?item_id="+item+"&limit=1000", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[dto.MovementListResponse](t, resp)
	assert.Len(t, list.Items, 60, "un límite sobre el tope no debe volver al valor por defecto")
	assert.Empty(t, list.NextCursor)
}

func TestMovements_CursorInvalidoDevuelve400(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/api/movements?cursor=bad!", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransfers_MueveStockEntreBodegas(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	a := env.createWarehouse(t, "A")
	b := env.createWarehouse(t, "B")
	require.Equal(t, fiber.StatusCreated, env.move(t, item, a, "PURCHASE", "20").StatusCode)

	resp := env.do(t, http.MethodPost, "/api/transfers", fiber.Map{
		"item_id": item, "from_warehouse_id": a, "to_warehouse_id": b, "quantity": "5",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	tr := decode[dto.TransferResponse](t, resp)
	require.Len(t, tr.Movements, 2)
	assert.Equal(t, tr.Reference, tr.Movements[0].Reference)
	assert.Equal(t, tr.Reference, tr.Movements[1].Reference)

	resp = env.do(t, http.MethodGet, "/api/balances?item_id="+item, nil)
	bal := decode[dto.BalanceListResponse](t, resp)
	assert.True(t, bal.Total.Equal(dec("20")))
	assert.Len(t, bal.Items, 2)
}

func TestTransfers_MismaBodegaDevuelve400(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/api/transfers", fiber.Map{
		"item_id": "x", "from_warehouse_id": "a", "to_warehouse_id": "a", "quantity": "5",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBalances_ReconstruirSinDiferencias(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	require.Equal(t, fiber.StatusCreated, env.move(t, item, wh, "PURCHASE", "7").StatusCode)

	resp := env.do(t, http.MethodPost, "/api/balances/rebuild", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rep := decode[dto.RebuildResponse](t, resp)
	assert.True(t, rep.Applied)
	assert.Equal(t, int64(1), rep.Movements)
	assert.Empty(t, rep.Drifted)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestItems_CodigoDuplicadoDevuelve409(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createItem(t, "OIL", "Ltr", "2")
	resp := env.do(t, http.MethodPost, "/api/items", fiber.Map{
		"item_code": "OIL", "item_name": "otro", "unit_of_measure": "Ltr",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestItems_BorrarConMovimientosDevuelveHasStockHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")
	require.Equal(t, fiber.StatusCreated, env.move(t, item, wh, "PURCHASE", "1").StatusCode)

	resp := env.do(t, http.MethodDelete, "/api/items/"+item, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "HAS_STOCK_HISTORY", decode[dto.ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodGet, "/api/items/"+item, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestItems_BorrarSinHistorialDevuelve204(t *testing.T) {
	env := newTestEnv(t, nil)
	item := env.createItem(t, "OIL", "Ltr", "2")
	resp := env.do(t, http.MethodDelete, "/api/items/"+item, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/items/"+item, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recetas y producción
// ──────────────────────────────────────────────────────────────────────────────

func TestProductions_SemillaAceiteConRecetaDejaMovimientosEnlazados(t *testing.T) {
	env := newTestEnv(t, nil)
	seed := env.createItem(t, "SEED", "Kg", "1")
	oil := env.createItem(t, "OIL", "Ltr", "0")
	wh := env.createWarehouse(t, "MAIN")
	require.Equal(t, fiber.StatusCreated, env.move(t, seed, wh, "PURCHASE", "100").StatusCode)

	resp := env.do(t, http.MethodPost, "/api/boms", fiber.Map{
		"bom_name": "Aceite", "finished_item_id": oil, "quantity": "1",
		"items": []fiber.Map{{"item_id": seed, "quantity": "10"}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	b := decode[dto.BOMResponse](t, resp)

	resp = env.do(t, http.MethodPost, "/api/productions", fiber.Map{
		"output_item_id": oil, "output_quantity": "10", "warehouse_id": wh, "bom_id": b.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	run := decode[dto.ProductionResponse](t, resp)
	require.Len(t, run.Movements, 2)
	for _, m := range run.Movements {
		assert.Equal(t, run.ProductionNo, m.Reference)
		assert.Equal(t, "PRODUCTION", m.MovementType)
	}
	assert.True(t, run.OutputBalance.Equal(dec("10")))

	resp = env.do(t, http.MethodGet, "/api/balances?item_id="+seed+"&warehouse_id="+wh, nil)
	assert.True(t, decode[dto.BalanceListResponse](t, resp).Total.IsZero())

	resp = env.do(t, http.MethodGet, "/api/productions/"+run.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode[dto.ProductionResponse](t, resp)
	assert.Len(t, got.Movements, 2)
	require.Len(t, got.Inputs, 1)
	assert.True(t, got.Inputs[0].Quantity.Equal(dec("100")))

	resp = env.do(t, http.MethodPut, "/api/boms/"+b.ID, fiber.Map{
		"bom_name": "Aceite 2", "finished_item_id": oil, "quantity": "1",
		"items": []fiber.Map{{"item_id": seed, "quantity": "9"}},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BOM_IN_USE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestProductions_FaltantesNoDejanMovimientos(t *testing.T) {
	env := newTestEnv(t, nil)
	seed := env.createItem(t, "SEED", "Kg", "1")
	salt := env.createItem(t, "SALT", "Kg", "1")
	oil := env.createItem(t, "OIL", "Ltr", "0")
	wh := env.createWarehouse(t, "MAIN")
	require.Equal(t, fiber.StatusCreated, env.move(t, seed, wh, "PURCHASE", "5").StatusCode)

	resp := env.do(t, http.MethodPost, "/api/productions", fiber.Map{
		"output_item_id": oil, "output_quantity": "1", "warehouse_id": wh,
		"input_items": []fiber.Map{{"item_id": seed, "quantity": "10"}, {"item_id": salt, "quantity": "1"}},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decode[struct {
		Code    string            `json:"code"`
		Details []dto.ShortageDTO `json:"details"`
	}](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Len(t, body.Details, 2)

	resp = env.do(t, http.MethodGet, "/api/movements?movement_type=PRODUCTION", nil)
	assert.Empty(t, decode[dto.MovementListResponse](t, resp).Items)
}

func TestProductions_RecetaEInsumosJuntosDevuelve400(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/api/productions", fiber.Map{
		"output_item_id": "oil", "output_quantity": "1", "warehouse_id": "wh", "bom_id": "b",
		"input_items": []fiber.Map{{"item_id": "seed", "quantity": "1"}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "AMBIGUOUS_PRODUCTION_INPUT", decode[dto.ErrorResponse](t, resp).Code)
}

func TestBOMs_ExpandirEscalaCantidades(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.createItem(t, "A", "Kg", "1")
	b := env.createItem(t, "B", "Kg", "1")
	out := env.createItem(t, "OUT", "Ltr", "0")
	resp := env.do(t, http.MethodPost, "/api/boms", fiber.Map{
		"bom_name": "Mezcla", "finished_item_id": out, "quantity": "1",
		"items": []fiber.Map{{"item_id": a, "quantity": "1"}, {"item_id": b, "quantity": "1"}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decode[dto.BOMResponse](t, resp).ID

	resp = env.do(t, http.MethodGet, "/api/boms/"+id+"/expand?quantity=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	exp := decode[dto.ExpandResponse](t, resp)
	require.Len(t, exp.Requirements, 2)
	for _, r := range exp.Requirements {
		assert.True(t, r.Quantity.Equal(dec("5")))
	}

	resp = env.do(t, http.MethodGet, "/api/boms/"+id+"/expand?quantity=0", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBOMs_RecetaVaciaDevuelveEmptyRecipe(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createItem(t, "OUT", "Ltr", "0")
	resp := env.do(t, http.MethodPost, "/api/boms", fiber.Map{
		"bom_name": "Nada", "finished_item_id": out, "quantity": "1", "items": []fiber.Map{},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_RECIPE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestBOMs_DesconocidaDevuelve404(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodGet, "/api/boms/no-existe", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "BOM_NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia
// ──────────────────────────────────────────────────────────────────────────────

type fakeIdempotency struct {
	mu     sync.Mutex
	saved  map[string]ports.StoredResponse
	locked map[string]bool
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{saved: map[string]ports.StoredResponse{}, locked: map[string]bool{}}
}

func (f *fakeIdempotency) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeIdempotency) Lock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked[key] {
		return nil, ports.ErrIdempotencyInFlight
	}
	f.locked[key] = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.locked, key)
		return nil
	}, nil
}

func (f *fakeIdempotency) Save(_ context.Context, key string, resp ports.StoredResponse, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = resp
	return nil
}

func TestIdempotency_ReintentoConMismaLlaveNoDuplica(t *testing.T) {
	env := newTestEnv(t, newFakeIdempotency())
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")

	first := env.move(t, item, wh, "PURCHASE", "10", apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusCreated, first.StatusCode)
	m1 := decode[dto.MovementResponse](t, first)

	second := env.move(t, item, wh, "PURCHASE", "10", apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	m2 := decode[dto.MovementResponse](t, second)
	assert.Equal(t, m1.ID, m2.ID)

	resp := env.do(t, http.MethodGet, "/api/balances?item_id="+item+"&warehouse_id="+wh, nil)
	assert.True(t, decode[dto.BalanceListResponse](t, resp).Total.Equal(dec("10")))
}

func TestIdempotency_LlaveEnCursoDevuelve409(t *testing.T) {
	idem := newFakeIdempotency()
	env := newTestEnv(t, idem)
	idem.locked["POST /api/movements k-2"] = true

	resp := env.move(t, "x", "y", "PURCHASE", "1", apphttp.HeaderIdempotencyKey, "k-2")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "IDEMPOTENCY_IN_FLIGHT", decode[dto.ErrorResponse](t, resp).Code)
}

// staleIdempotency reporta "sin respuesta" en los primeros misses Get, como si la
// petición hubiera leído antes de que otra con la misma llave guardara la suya.
type staleIdempotency struct {
	*fakeIdempotency
	misses int
}

func (s *staleIdempotency) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	if s.misses > 0 {
		s.misses--
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()
	return s.fakeIdempotency.Get(ctx, key)
}

func TestIdempotency_RespuestaGuardadaTrasTomarLaLlaveNoReprocesa(t *testing.T) {
	idem := &staleIdempotency{fakeIdempotency: newFakeIdempotency()}
	env := newTestEnv(t, idem)
	item := env.createItem(t, "OIL", "Ltr", "2")
	wh := env.createWarehouse(t, "MAIN")

	first := env.move(t, item, wh, "PURCHASE", "10", apphttp.HeaderIdempotencyKey, "k")
	require.Equal(t, fiber.StatusCreated, first.StatusCode)
	m1 := decode[dto.MovementResponse](t, first)

	// la segunda petición no ve la respuesta en su primera lectura
	idem.misses = 1
	second := env.move(t, item, wh, "PURCHASE", "10", apphttp.HeaderIdempotencyKey, "k")
	require.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, m1.ID, decode[dto.MovementResponse](t, second).ID)
	assert.Zero(t, idem.misses)

	resp := env.do(t, http.MethodGet, "/api/balances?item_id="+item+"&warehouse_id="+wh, nil)
	assert.True(t, decode[dto.BalanceListResponse](t, resp).Total.Equal(dec("10")))
}
