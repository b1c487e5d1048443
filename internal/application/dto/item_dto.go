package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem.
type CreateItemRequest struct {
	Code           string          `json:"item_code" validate:"required,min=1,max=50"`
	Name           string          `json:"item_name" validate:"required,min=1,max=200"`
	UnitMeasure    string          `json:"unit_of_measure" validate:"required,max=20"`
	StandardCost   decimal.Decimal `json:"standard_cost"`
	StandardPrice  decimal.Decimal `json:"standard_selling_price"`
	IsRawMaterial  bool            `json:"is_raw_material"`
	IsFinishedGood bool            `json:"is_finished_good"`
	IsPurchased    bool            `json:"is_purchased"`
	IsManufactured bool            `json:"is_manufactured"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
}

// UpdateItemRequest entrada para actualizar un ítem (el código no cambia).
type UpdateItemRequest struct {
	Name           *string          `json:"item_name" validate:"omitempty,min=1,max=200"`
	UnitMeasure    *string          `json:"unit_of_measure" validate:"omitempty,max=20"`
	StandardCost   *decimal.Decimal `json:"standard_cost"`
	StandardPrice  *decimal.Decimal `json:"standard_selling_price"`
	IsRawMaterial  *bool            `json:"is_raw_material"`
	IsFinishedGood *bool            `json:"is_finished_good"`
	IsPurchased    *bool            `json:"is_purchased"`
	IsManufactured *bool            `json:"is_manufactured"`
	ReorderLevel   *decimal.Decimal `json:"reorder_level"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID             string          `json:"id"`
	Code           string          `json:"item_code"`
	Name           string          `json:"item_name"`
	UnitMeasure    string          `json:"unit_of_measure"`
	StandardCost   decimal.Decimal `json:"standard_cost"`
	StandardPrice  decimal.Decimal `json:"standard_selling_price"`
	IsRawMaterial  bool            `json:"is_raw_material"`
	IsFinishedGood bool            `json:"is_finished_good"`
	IsPurchased    bool            `json:"is_purchased"`
	IsManufactured bool            `json:"is_manufactured"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
