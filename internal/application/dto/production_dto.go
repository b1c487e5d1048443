package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionInputRequest insumo explícito (modo manual).
type ProductionInputRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// RecordProductionRequest body para POST /api/productions. Indicar bom_id o input_items, no ambos.
type RecordProductionRequest struct {
	OutputItemID   string                   `json:"output_item_id" validate:"required"`
	OutputQuantity decimal.Decimal          `json:"output_quantity"`
	WarehouseID    string                   `json:"warehouse_id" validate:"required"`
	ProductionDate string                   `json:"production_date"`
	BOMID          string                   `json:"bom_id,omitempty"`
	InputItems     []ProductionInputRequest `json:"input_items,omitempty" validate:"dive"`
	Remarks        string                   `json:"remarks,omitempty" validate:"max=500"`
	AllowNegative  bool                     `json:"allow_negative,omitempty"`
}

// ProductionLineResponse consumo de un insumo en la corrida.
type ProductionLineResponse struct {
	MovementNo  int64           `json:"movement_no"`
	ItemID      string          `json:"item_id"`
	ItemName    string          `json:"item_name,omitempty"`
	UnitMeasure string          `json:"unit_of_measure,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// ProductionResponse salida de una corrida de producción.
type ProductionResponse struct {
	ID             string                   `json:"id"`
	ProductionNo   string                   `json:"production_no"`
	OutputItemID   string                   `json:"output_item_id"`
	OutputItemName string                   `json:"output_item_name,omitempty"`
	OutputUOM      string                   `json:"output_uom,omitempty"`
	OutputQuantity decimal.Decimal          `json:"output_quantity"`
	WarehouseID    string                   `json:"warehouse_id"`
	ProductionDate string                   `json:"production_date"`
	BOMID          string                   `json:"bom_id,omitempty"`
	Remarks        string                   `json:"remarks,omitempty"`
	Status         string                   `json:"status"`
	TotalInputCost decimal.Decimal          `json:"total_input_cost"`
	OutputUnitCost decimal.Decimal          `json:"output_unit_cost"`
	OutputBalance  decimal.Decimal          `json:"output_balance"`
	Inputs         []ProductionLineResponse `json:"inputs"`
	Movements      []MovementResponse       `json:"movements"`
	CreatedBy      string                   `json:"created_by,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// ProductionListResponse lista paginada de corridas (sin movimientos).
type ProductionListResponse struct {
	Items []ProductionResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}
