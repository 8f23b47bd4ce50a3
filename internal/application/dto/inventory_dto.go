package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryListRequest filtros de GET /api/inventory.
type InventoryListRequest struct {
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	VariantID   string `query:"variant_id" validate:"omitempty,uuid"`
	LowStock    bool   `query:"low_stock"`
	PageRequest
}

// CreateInventoryRequest body para POST /api/inventory (registro con stock inicial).
type CreateInventoryRequest struct {
	WarehouseID  string          `json:"warehouse_id" validate:"required,uuid"`
	VariantID    string          `json:"variant_id" validate:"required,uuid"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	StockMinimum decimal.Decimal `json:"stock_minimum"`
	StockMaximum decimal.Decimal `json:"stock_maximum"`
}

// UpdateThresholdsRequest body para PUT /api/inventory/:warehouse/:variant/thresholds.
type UpdateThresholdsRequest struct {
	StockMinimum decimal.Decimal `json:"stock_minimum"`
	StockMaximum decimal.Decimal `json:"stock_maximum"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
// UnitCost solo aplica a ENTRADA; si se omite se usa el costo promedio vigente.
type AdjustmentRequest struct {
	WarehouseID string           `json:"warehouse_id" validate:"required,uuid"`
	VariantID   string           `json:"variant_id" validate:"required,uuid"`
	Type        string           `json:"type" validate:"required,oneof=ENTRADA SALIDA"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Note        string           `json:"note" validate:"max=500"`
}

// InventoryResponse existencia de una variante en un almacén.
type InventoryResponse struct {
	WarehouseID         string          `json:"warehouse_id"`
	VariantID           string          `json:"variant_id"`
	StockOnHand         decimal.Decimal `json:"stock_on_hand"`
	StockMinimum        decimal.Decimal `json:"stock_minimum"`
	StockMaximum        decimal.Decimal `json:"stock_maximum"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	LastUnitCost        decimal.Decimal `json:"last_unit_cost"`
	LowStock            bool            `json:"low_stock"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// InventoryListResponse lista paginada de existencias.
type InventoryListResponse struct {
	Items []InventoryResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// MovementListRequest filtros del kardex de un almacén. Fechas en RFC3339 o YYYY-MM-DD.
type MovementListRequest struct {
	VariantID string `query:"variant_id" validate:"omitempty,uuid"`
	Type      string `query:"type" validate:"omitempty,oneof=ENTRADA SALIDA"`
	From      string `query:"from"`
	To        string `query:"to"`
	PageRequest
}

// MovementResponse movimiento de inventario (kardex).
type MovementResponse struct {
	ID            string          `json:"id"`
	WarehouseID   string          `json:"warehouse_id"`
	VariantID     string          `json:"variant_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	StockBefore   decimal.Decimal `json:"stock_before"`
	StockAfter    decimal.Decimal `json:"stock_after"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Note          string          `json:"note,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para una variante en stock bajo.
type ReplenishmentSuggestionDTO struct {
	WarehouseID        string          `json:"warehouse_id"`
	VariantID          string          `json:"variant_id"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	StockMinimum       decimal.Decimal `json:"stock_minimum"`
	TargetStock        decimal.Decimal `json:"target_stock"`         // stock_maximo o stock_minimo * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // TargetStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}
