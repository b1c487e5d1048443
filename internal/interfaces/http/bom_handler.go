package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
)

// BOMHandler maneja las recetas (bill of materials).
type BOMHandler struct {
	registry *bom.Registry
}

// NewBOMHandler construye el handler.
func NewBOMHandler(registry *bom.Registry) *BOMHandler {
	return &BOMHandler{registry: registry}
}

// Create godoc
// @Summary      Crear receta
// @Tags         boms
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBOMRequest  true  "Producto terminado, cantidad por lote e insumos"
// @Success      201   {object}  dto.BOMResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/boms [post]
func (h *BOMHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBOMRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	b, err := h.registry.CreateBOM(c.UserContext(), bom.InputFromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bom.ToResponse(b, false))
}

// Import godoc
// @Summary      Importar receta desde Excel
// @Description  Hoja 1: columna A código del insumo, columna B cantidad por lote. La primera fila puede ser encabezado.
// @Tags         boms
// @Accept       multipart/form-data
// @Produce      json
// @Param        file              formData  file    true  "Archivo .xlsx"
// @Param        bom_name          formData  string  true  "Nombre de la receta"
// @Param        finished_item_id  formData  string  true  "Producto terminado"
// @Param        quantity          formData  string  true  "Cantidad por lote"
// @Success      201  {object}  dto.BOMResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/import [post]
func (h *BOMHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "VALIDATION", "file es requerido")
	}
	qty, err := decimal.NewFromString(c.FormValue("quantity"))
	if err != nil {
		return badRequest(c, "VALIDATION", "quantity inválida")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "no se pudo leer el archivo")
	}
	defer f.Close()

	b, err := h.registry.ImportBOM(c.UserContext(), c.FormValue("bom_name"), c.FormValue("finished_item_id"), qty, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bom.ToResponse(b, false))
}

// GetByID godoc
// @Summary      Obtener receta con stock actual de cada insumo
// @Tags         boms
// @Produce      json
// @Param        id            path   string  true   "ID de la receta"
// @Param        warehouse_id  query  string  false  "Bodega para el stock. Vacío = todas."
// @Success      200  {object}  dto.BOMResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id} [get]
func (h *BOMHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.registry.GetBOM(c.UserContext(), c.Params("id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar recetas
// @Tags         boms
// @Produce      json
// @Param        finished_item_id  query  string  false  "Filtrar por producto terminado"
// @Param        limit             query  int     false  "Límite"  default(20)
// @Param        offset            query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.BOMListResponse
// @Router       /api/boms [get]
func (h *BOMHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := pageFromQuery(c)
	list, err := h.registry.ListBOMs(ctx, c.Query("finished_item_id"), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.BOMListResponse{
		Items: make([]dto.BOMResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, b := range list {
		inUse, err := h.registry.InUse(ctx, b.ID)
		if err != nil {
			return writeError(c, err)
		}
		out.Items = append(out.Items, *bom.ToResponse(b, inUse))
	}
	return c.JSON(out)
}

// Expand godoc
// @Summary      Requerimientos de insumos para una cantidad deseada
// @Tags         boms
// @Produce      json
// @Param        id        path   string  true  "ID de la receta"
// @Param        quantity  query  string  true  "Cantidad deseada del producto terminado"
// @Success      200  {object}  dto.ExpandResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/expand [get]
func (h *BOMHandler) Expand(c *fiber.Ctx) error {
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		return badRequest(c, "VALIDATION", "quantity inválida")
	}
	id := c.Params("id")
	reqs, err := h.registry.Expand(c.UserContext(), id, qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bom.RequirementsToResponse(id, qty, reqs))
}

// Update godoc
// @Summary      Editar receta no usada
// @Description  Una receta ya usada en producción no se modifica; se crea una revisión con POST /api/boms/{id}/revise.
// @Tags         boms
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la receta"
// @Param        body  body  dto.CreateBOMRequest  true  "Receta completa"
// @Success      200   {object}  dto.BOMResponse
// @Failure      409   {object}  dto.ErrorResponse  "BOM_IN_USE"
// @Router       /api/boms/{id} [put]
func (h *BOMHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateBOMRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	b, err := h.registry.UpdateBOM(c.UserContext(), c.Params("id"), bom.InputFromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bom.ToResponse(b, false))
}

// Revise godoc
// @Summary      Crear nueva versión de una receta
// @Tags         boms
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la receta anterior"
// @Param        body  body  dto.CreateBOMRequest  true  "Receta completa"
// @Success      201   {object}  dto.BOMResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/boms/{id}/revise [post]
func (h *BOMHandler) Revise(c *fiber.Ctx) error {
	var in dto.CreateBOMRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	b, err := h.registry.ReviseBOM(c.UserContext(), c.Params("id"), bom.InputFromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bom.ToResponse(b, false))
}

// Delete godoc
// @Summary      Eliminar receta no usada
// @Tags         boms
// @Param        id   path  string  true  "ID de la receta"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse  "BOM_IN_USE"
// @Router       /api/boms/{id} [delete]
func (h *BOMHandler) Delete(c *fiber.Ctx) error {
	if err := h.registry.DeleteBOM(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
