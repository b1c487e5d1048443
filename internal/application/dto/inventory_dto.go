package dto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/movements.
type RecordMovementRequest struct {
	ItemID          string           `json:"item_id" validate:"required"`
	WarehouseID     string           `json:"warehouse_id" validate:"required"`
	Quantity        decimal.Decimal  `json:"quantity"`
	MovementType    string           `json:"movement_type" validate:"required,oneof=PURCHASE SALE PRODUCTION ADJUSTMENT"`
	TransactionDate string           `json:"transaction_date"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference       string           `json:"reference,omitempty" validate:"max=100"`
	Remarks         string           `json:"remarks,omitempty" validate:"max=500"`
	AllowNegative   bool             `json:"allow_negative,omitempty"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID              string          `json:"id"`
	MovementNo      int64           `json:"movement_no"`
	ItemID          string          `json:"item_id"`
	WarehouseID     string          `json:"warehouse_id"`
	MovementType    string          `json:"movement_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TransactionDate string          `json:"transaction_date"`
	Reference       string          `json:"reference,omitempty"`
	Remarks         string          `json:"remarks,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MovementListResponse página de movimientos; NextCursor vacío = no hay más.
type MovementListResponse struct {
	Items      []MovementResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// TransferRequest body para POST /api/transfers.
type TransferRequest struct {
	ItemID          string          `json:"item_id" validate:"required"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Quantity        decimal.Decimal `json:"quantity"`
	TransactionDate string          `json:"transaction_date"`
	Remarks         string          `json:"remarks,omitempty" validate:"max=500"`
	AllowNegative   bool            `json:"allow_negative,omitempty"`
}

// TransferResponse par de movimientos del traslado.
type TransferResponse struct {
	Reference string             `json:"reference"`
	Movements []MovementResponse `json:"movements"`
}

// BalanceResponse saldo de un ítem en una bodega.
type BalanceResponse struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
}

// BalanceListResponse saldos de un ítem en todas sus bodegas.
type BalanceListResponse struct {
	ItemID string            `json:"item_id"`
	Total  decimal.Decimal   `json:"total"`
	Items  []BalanceResponse `json:"items"`
}

// DriftDTO par (ítem, bodega) cuya proyección no coincidía con el log.
type DriftDTO struct {
	ItemID       string          `json:"item_id"`
	WarehouseID  string          `json:"warehouse_id"`
	CachedQty    decimal.Decimal `json:"cached_quantity"`
	ReplayedQty  decimal.Decimal `json:"replayed_quantity"`
	CachedCost   decimal.Decimal `json:"cached_average_cost"`
	ReplayedCost decimal.Decimal `json:"replayed_average_cost"`
}

// RebuildResponse resultado de POST /api/balances/rebuild.
type RebuildResponse struct {
	Applied    bool       `json:"applied"`
	Movements  int64      `json:"movements"`
	Pairs      int        `json:"pairs"`
	Drifted    []DriftDTO `json:"drifted"`
	DurationMs int64      `json:"duration_ms"`
}

// ReorderSuggestionDTO ítem en o bajo su punto de reorden.
type ReorderSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	UnitMeasure        string          `json:"unit_measure"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderLevel       decimal.Decimal `json:"reorder_level"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // ReorderLevel * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo estándar
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// ShortageDTO faltante reportado en un 409 INSUFFICIENT_STOCK.
type ShortageDTO struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
}

// ShortagesFromError traduce los faltantes de un InsufficientStockError.
func ShortagesFromError(e *domain.InsufficientStockError) []ShortageDTO {
	out := make([]ShortageDTO, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		out = append(out, ShortageDTO{ItemID: s.ItemID, WarehouseID: s.WarehouseID, Required: s.Required, Available: s.Available})
	}
	return out
}

// MovementFromEntity mapea un movimiento a su respuesta.
func MovementFromEntity(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		MovementNo:      m.MovementNo,
		ItemID:          m.ItemID,
		WarehouseID:     m.WarehouseID,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		TransactionDate: FormatDate(m.MovementDate),
		Reference:       m.Reference,
		Remarks:         m.Remarks,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// MovementsFromEntities mapea una lista de movimientos.
func MovementsFromEntities(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// BalanceFromEntity mapea un saldo.
func BalanceFromEntity(s *entity.Stock) BalanceResponse {
	return BalanceResponse{
		ItemID:      s.ItemID,
		WarehouseID: s.WarehouseID,
		Quantity:    s.Quantity,
		AverageCost: s.AverageCost,
		Value:       s.Quantity.Mul(s.AverageCost).Round(4),
	}
}

// EncodeCursor serializa la posición (fecha, número) del último movimiento de una página.
func EncodeCursor(date time.Time, no int64) string {
	raw := fmt.Sprintf("%s|%d", date.Format(DateLayout), no)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor inverso de EncodeCursor.
func DecodeCursor(s string) (time.Time, int64, error) {
	invalid := errors.New("cursor inválido")
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, 0, invalid
	}
	parts := strings.SplitN(string(b), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, invalid
	}
	date, err := time.Parse(DateLayout, parts[0])
	if err != nil {
		return time.Time{}, 0, invalid
	}
	no, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, invalid
	}
	return date, no, nil
}
