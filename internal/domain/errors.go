package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Motor de inventario
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrInvalidMovementType = errors.New("tipo de movimiento inválido")
	ErrUnknownItem         = errors.New("ítem no existe")
	ErrUnknownWarehouse    = errors.New("bodega no existe")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrHasStockHistory     = errors.New("el ítem tiene movimientos o saldo registrado")
	ErrCommitFailed        = errors.New("no se pudo confirmar la transacción")

	// Recetas (BOM) y producción
	ErrBOMNotFound              = errors.New("receta no encontrada")
	ErrBOMInUse                 = errors.New("la receta ya fue usada en producción")
	ErrDuplicateInputLine       = errors.New("ítem repetido en las líneas de la receta")
	ErrZeroOutputQuantity       = errors.New("la cantidad de salida debe ser mayor a cero")
	ErrEmptyRecipe              = errors.New("la receta no tiene líneas")
	ErrBOMOutputMismatch        = errors.New("el ítem de salida no coincide con la receta")
	ErrAmbiguousProductionInput = errors.New("indicar receta o insumos explícitos, no ambos ni ninguno")
)

// kinds son los errores que el caller ya puede clasificar; cualquier otro error
// en la fase de escritura se reporta como ErrCommitFailed.
var kinds = []error{
	ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrConflict,
	ErrInvalidQuantity, ErrInvalidMovementType, ErrUnknownItem, ErrUnknownWarehouse,
	ErrInsufficientStock, ErrHasStockHistory, ErrCommitFailed,
	ErrBOMNotFound, ErrBOMInUse, ErrDuplicateInputLine, ErrZeroOutputQuantity,
	ErrEmptyRecipe, ErrBOMOutputMismatch, ErrAmbiguousProductionInput,
}

// IsKind indica si err corresponde a alguno de los errores de dominio.
func IsKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// CommitFailure clasifica err: los errores de dominio se devuelven tal cual,
// el resto (BD, timeout, commit) se envuelve en ErrCommitFailed. Los repos solo
// devuelven ErrDuplicate para llaves del usuario; un choque en números asignados
// por el sistema llega sin clasificar y termina como ErrCommitFailed.
func CommitFailure(err error) error {
	if err == nil || IsKind(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCommitFailed, err)
}

// Shortage faltante de un insumo en una bodega.
type Shortage struct {
	ItemID      string
	WarehouseID string
	Required    decimal.Decimal
	Available   decimal.Decimal
}

// InsufficientStockError detalla todos los faltantes detectados; errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s@%s requiere %s, disponible %s",
			s.ItemID, s.WarehouseID, s.Required.String(), s.Available.String()))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
