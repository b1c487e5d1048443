package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrCommitFailed envuelve la causa original y debe ganar sobre ella.
var errorMappings = []errorMapping{
	{domain.ErrCommitFailed, fiber.StatusServiceUnavailable, "COMMIT_FAILED"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrHasStockHistory, fiber.StatusConflict, "HAS_STOCK_HISTORY"},
	{domain.ErrBOMInUse, fiber.StatusConflict, "BOM_IN_USE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnknownItem, fiber.StatusNotFound, "UNKNOWN_ITEM"},
	{domain.ErrUnknownWarehouse, fiber.StatusNotFound, "UNKNOWN_WAREHOUSE"},
	{domain.ErrBOMNotFound, fiber.StatusNotFound, "BOM_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrZeroOutputQuantity, fiber.StatusBadRequest, "ZERO_OUTPUT_QUANTITY"},
	{domain.ErrEmptyRecipe, fiber.StatusBadRequest, "EMPTY_RECIPE"},
	{domain.ErrDuplicateInputLine, fiber.StatusBadRequest, "DUPLICATE_INPUT_LINE"},
	{domain.ErrAmbiguousProductionInput, fiber.StatusBadRequest, "AMBIGUOUS_PRODUCTION_INPUT"},
	{domain.ErrBOMOutputMismatch, fiber.StatusBadRequest, "BOM_OUTPUT_MISMATCH"},
	{domain.ErrInvalidMovementType, fiber.StatusBadRequest, "INVALID_MOVEMENT_TYPE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// mapError traduce un error de aplicación a status HTTP y cuerpo de error.
func mapError(err error) (int, dto.ErrorResponse) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := dto.ErrorResponse{Code: m.code, Message: err.Error()}
		var short *domain.InsufficientStockError
		if m.target == domain.ErrInsufficientStock && errors.As(err, &short) {
			resp.Details = dto.ShortagesFromError(short)
		}
		if m.status == fiber.StatusServiceUnavailable {
			resp.Message = domain.ErrCommitFailed.Error()
		}
		return m.status, resp
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	if status >= fiber.StatusInternalServerError {
		c.Locals(localError, err)
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
