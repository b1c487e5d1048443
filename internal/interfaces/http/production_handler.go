package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/production"
)

// ProductionHandler maneja las corridas de producción.
type ProductionHandler struct {
	orch *production.Orchestrator
}

// NewProductionHandler construye el handler.
func NewProductionHandler(orch *production.Orchestrator) *ProductionHandler {
	return &ProductionHandler{orch: orch}
}

// Record godoc
// @Summary      Registrar corrida de producción
// @Description  Consume los insumos (por receta o explícitos) y da entrada al producto terminado en una sola transacción.
// @Tags         productions
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body  body  dto.RecordProductionRequest  true  "output_item_id, output_quantity, warehouse_id y bom_id o input_items"
// @Success      201   {object}  dto.ProductionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con todos los faltantes en details"
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/productions [post]
func (h *ProductionHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordProductionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.orch.RecordFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener corrida con sus movimientos
// @Tags         productions
// @Produce      json
// @Param        id   path  string  true  "ID de la corrida"
// @Success      200  {object}  dto.ProductionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/productions/{id} [get]
func (h *ProductionHandler) GetByID(c *fiber.Ctx) error {
	ctx := c.UserContext()
	run, err := h.orch.GetProduction(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orch.ToResponse(ctx, run)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar corridas (más recientes primero)
// @Tags         productions
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ProductionListResponse
// @Router       /api/productions [get]
func (h *ProductionHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := pageFromQuery(c)
	runs, err := h.orch.ListProductions(ctx, p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ProductionListResponse{
		Items: make([]dto.ProductionResponse, 0, len(runs)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, run := range runs {
		r, err := h.orch.ToResponse(ctx, run)
		if err != nil {
			return writeError(c, err)
		}
		out.Items = append(out.Items, *r)
	}
	return c.JSON(out)
}
