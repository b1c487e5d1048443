package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLineRequest línea de receta: cantidad por lote.
type BOMLineRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateBOMRequest body para POST /api/boms, PUT /api/boms/:id y POST /api/boms/:id/revise.
type CreateBOMRequest struct {
	BOMName        string           `json:"bom_name" validate:"required,min=1,max=200"`
	FinishedItemID string           `json:"finished_item_id" validate:"required"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Items          []BOMLineRequest `json:"items" validate:"dive"`
}

// BOMLineResponse línea con nombre, unidad y stock actual del insumo.
type BOMLineResponse struct {
	LineNo       int              `json:"line_no"`
	ItemID       string           `json:"item_id"`
	ItemCode     string           `json:"item_code"`
	ItemName     string           `json:"item_name"`
	UnitMeasure  string           `json:"unit_of_measure"`
	Quantity     decimal.Decimal  `json:"quantity"`
	CurrentStock *decimal.Decimal `json:"current_stock,omitempty"`
}

// BOMResponse salida de una receta.
type BOMResponse struct {
	ID               string            `json:"id"`
	BOMNo            string            `json:"bom_no"`
	BOMName          string            `json:"bom_name"`
	FinishedItemID   string            `json:"finished_item_id"`
	FinishedItemName string            `json:"finished_item_name,omitempty"`
	FinishedItemUOM  string            `json:"finished_item_uom,omitempty"`
	Quantity         decimal.Decimal   `json:"quantity"`
	Version          int               `json:"version"`
	SupersedesID     string            `json:"supersedes_id,omitempty"`
	InUse            bool              `json:"in_use"`
	Items            []BOMLineResponse `json:"items"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// BOMListResponse lista paginada de recetas.
type BOMListResponse struct {
	Items []BOMResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}

// RequirementResponse cantidad escalada de un insumo.
type RequirementResponse struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ExpandResponse resultado de GET /api/boms/:id/expand.
type ExpandResponse struct {
	BOMID        string                `json:"bom_id"`
	Quantity     decimal.Decimal       `json:"quantity"`
	Requirements []RequirementResponse `json:"requirements"`
}
