package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest body para POST /api/purchases.
type CreatePurchaseRequest struct {
	SupplierID   string                `json:"supplier_id" validate:"required,uuid"`
	WarehouseID  string                `json:"warehouse_id" validate:"required,uuid"`
	Number       string                `json:"number" validate:"required,max=50"`
	PurchaseDate *time.Time            `json:"purchase_date,omitempty"`
	DeliveryDate *time.Time            `json:"delivery_date,omitempty"`
	Notes        string                `json:"notes" validate:"max=1000"`
	Lines        []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseLineRequest línea de una compra nueva.
type PurchaseLineRequest struct {
	VariantID string          `json:"variant_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// PurchaseListRequest filtros de GET /api/purchases. Fechas en RFC3339 o YYYY-MM-DD.
type PurchaseListRequest struct {
	SupplierID  string `query:"supplier_id" validate:"omitempty,uuid"`
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	Status      string `query:"status" validate:"omitempty,oneof=PENDIENTE RECIBIDA CANCELADA"`
	From        string `query:"from"`
	To          string `query:"to"`
	PageRequest
}

// ReceivePurchaseRequest body para PUT /api/purchases/:id/receive.
type ReceivePurchaseRequest struct {
	Lines []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiveLineRequest cantidad recibida de una variante. Cantidad <= 0 se omite.
type ReceiveLineRequest struct {
	VariantID string          `json:"variant_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// PurchaseLineResponse detalle de compra.
type PurchaseLineResponse struct {
	ID               string          `json:"id"`
	VariantID        string          `json:"variant_id"`
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
}

// PurchaseResponse compra con sus totales.
type PurchaseResponse struct {
	ID           string                 `json:"id"`
	SupplierID   string                 `json:"supplier_id"`
	WarehouseID  string                 `json:"warehouse_id"`
	Number       string                 `json:"number"`
	PurchaseDate time.Time              `json:"purchase_date"`
	DeliveryDate *time.Time             `json:"delivery_date,omitempty"`
	Subtotal     decimal.Decimal        `json:"subtotal"`
	Taxes        decimal.Decimal        `json:"taxes"`
	Total        decimal.Decimal        `json:"total"`
	Notes        string                 `json:"notes,omitempty"`
	Status       string                 `json:"status"`
	CreatedBy    string                 `json:"created_by"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Lines        []PurchaseLineResponse `json:"lines,omitempty"`
}

// PurchaseListResponse lista paginada de compras.
type PurchaseListResponse struct {
	Items []PurchaseResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LineFailureResponse línea que no pudo recibirse.
type LineFailureResponse struct {
	VariantID string `json:"variant_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ReceiptResponse resultado de una recepción (200 completa, 207 con fallas).
type ReceiptResponse struct {
	PurchaseID string                `json:"purchase_id"`
	Status     string                `json:"status"`
	Received   int                   `json:"received"`
	Skipped    int                   `json:"skipped"`
	Failed     int                   `json:"failed"`
	Movements  []MovementResponse    `json:"movements"`
	Failures   []LineFailureResponse `json:"failures,omitempty"`
}
