package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// maxMovementPage tope de movimientos por página; límites mayores se recortan.
const maxMovementPage = 500

// InventoryHandler maneja movimientos, traslados, saldos y reposición.
type InventoryHandler struct {
	ledger *inventory.Ledger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  quantity con signo: positivo entra, negativo sale. Los traslados usan /api/transfers.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body  body  dto.RecordMovementRequest  true  "item_id, warehouse_id, movement_type, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.ledger.RecordMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos (más recientes primero)
// @Tags         inventory
// @Produce      json
// @Param        item_id        query  string  false  "Ítem"
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        movement_type  query  string  false  "Tipo"
// @Param        reference      query  string  false  "Documento (PRD-000001, TRF-000001)"
// @Param        from           query  string  false  "Fecha desde (YYYY-MM-DD)"
// @Param        to             query  string  false  "Fecha hasta (YYYY-MM-DD)"
// @Param        limit          query  int     false  "Límite (máx. 500)"  default(50)
// @Param        cursor         query  string  false  "next_cursor de la página anterior"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ItemID:      c.Query("item_id"),
		WarehouseID: c.Query("warehouse_id"),
		Type:        c.Query("movement_type"),
		Reference:   c.Query("reference"),
	}
	if s := c.Query("from"); s != "" {
		t, err := dto.ParseDate(s)
		if err != nil {
			return badRequest(c, "VALIDATION", err.Error())
		}
		filter.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := dto.ParseDate(s)
		if err != nil {
			return badRequest(c, "VALIDATION", err.Error())
		}
		filter.To = &t
	}
	var after *repository.MovementCursor
	if s := c.Query("cursor"); s != "" {
		date, no, err := dto.DecodeCursor(s)
		if err != nil {
			return badRequest(c, "INVALID_CURSOR", err.Error())
		}
		after = &repository.MovementCursor{Date: date, No: no}
	}
	limit := min(c.QueryInt("limit", 50), maxMovementPage)
	if limit <= 0 {
		limit = 50
	}
	page, next, err := h.ledger.ListMovements(c.UserContext(), filter, after, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{Items: dto.MovementsFromEntities(page)}
	if next != nil {
		out.NextCursor = dto.EncodeCursor(next.Date, next.No)
	}
	return c.JSON(out)
}

// RecordTransfer godoc
// @Summary      Trasladar stock entre bodegas
// @Description  Registra en una transacción la salida del origen y la entrada al destino con la misma referencia.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body  body  dto.TransferRequest  true  "item_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *InventoryHandler) RecordTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.ledger.RecordTransferFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetBalances godoc
// @Summary      Saldos de un ítem
// @Description  Con warehouse_id devuelve el saldo de esa bodega (0 si nunca tuvo movimientos); sin él, todas las bodegas.
// @Tags         inventory
// @Produce      json
// @Param        item_id       query  string  true   "Ítem"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.BalanceListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/balances [get]
func (h *InventoryHandler) GetBalances(c *fiber.Ctx) error {
	itemID := c.Query("item_id")
	if itemID == "" {
		return badRequest(c, "VALIDATION", "item_id es requerido")
	}
	ctx := c.UserContext()
	if whID := c.Query("warehouse_id"); whID != "" {
		s, err := h.ledger.GetStock(ctx, itemID, whID)
		if err != nil {
			return writeError(c, err)
		}
		b := dto.BalanceFromEntity(s)
		return c.JSON(dto.BalanceListResponse{ItemID: itemID, Total: s.Quantity, Items: []dto.BalanceResponse{b}})
	}
	stocks, err := h.ledger.StocksByItem(ctx, itemID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.BalanceListResponse{ItemID: itemID, Total: decimal.Zero, Items: make([]dto.BalanceResponse, 0, len(stocks))}
	for _, s := range stocks {
		out.Items = append(out.Items, dto.BalanceFromEntity(s))
		out.Total = out.Total.Add(s.Quantity)
	}
	return c.JSON(out)
}

// VerifyBalances godoc
// @Summary      Comparar saldos contra el log
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Router       /api/balances/verify [get]
func (h *InventoryHandler) VerifyBalances(c *fiber.Ctx) error {
	rep, err := h.ledger.VerifyBalances(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rebuildResponse(rep))
}

// RebuildBalances godoc
// @Summary      Reconstruir saldos desde el log
// @Description  Recalcula saldo y costo promedio de cada (ítem, bodega) reproduciendo todos los movimientos.
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/balances/rebuild [post]
func (h *InventoryHandler) RebuildBalances(c *fiber.Ctx) error {
	rep, err := h.ledger.RebuildBalances(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rebuildResponse(rep))
}

// GetReorderReport godoc
// @Summary      Ítems en o bajo su punto de reorden
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega. Vacío = stock global."
// @Success      200  {array}   dto.ReorderSuggestionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/reorder-report [get]
func (h *InventoryHandler) GetReorderReport(c *fiber.Ctx) error {
	out, err := h.ledger.ReorderReport(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func rebuildResponse(rep *inventory.RebuildReport) dto.RebuildResponse {
	out := dto.RebuildResponse{
		Applied:    rep.Applied,
		Movements:  rep.Movements,
		Pairs:      rep.Pairs,
		Drifted:    make([]dto.DriftDTO, 0, len(rep.Drifted)),
		DurationMs: rep.Duration.Milliseconds(),
	}
	for _, d := range rep.Drifted {
		out.Drifted = append(out.Drifted, dto.DriftDTO{
			ItemID:       d.ItemID,
			WarehouseID:  d.WarehouseID,
			CachedQty:    d.CachedQty,
			ReplayedQty:  d.ReplayedQty,
			CachedCost:   d.CachedCost,
			ReplayedCost: d.ReplayedCost,
		})
	}
	return out
}
