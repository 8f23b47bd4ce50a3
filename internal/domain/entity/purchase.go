package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una compra (estado_compra).
const (
	PurchaseStatusPendiente = "PENDIENTE"
	PurchaseStatusRecibida  = "RECIBIDA"
	PurchaseStatusCancelada = "CANCELADA"
)

// Purchase orden de compra. EstadoID es el flag de borrado lógico (cat_estado),
// independiente del ciclo PENDIENTE -> RECIBIDA | CANCELADA.
type Purchase struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SupplierID   uuid.UUID
	WarehouseID  uuid.UUID
	Number       string
	PurchaseDate time.Time
	DeliveryDate *time.Time
	Subtotal     decimal.Decimal
	Taxes        decimal.Decimal
	Total        decimal.Decimal
	Notes        string
	Status       string
	EstadoID     uuid.UUID
	CreatedBy    uuid.UUID
	ModifiedBy   uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []PurchaseLine
}

// PurchaseLine detalle de compra (compra_detalle).
type PurchaseLine struct {
	ID               uuid.UUID
	PurchaseID       uuid.UUID
	VariantID        uuid.UUID
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	Subtotal         decimal.Decimal
	CreatedAt        time.Time
}

// CanReceive informa si la compra admite recepción.
func (p *Purchase) CanReceive() bool { return p.Status == PurchaseStatusPendiente }

// CanCancel CANCELADA solo es alcanzable desde PENDIENTE.
func (p *Purchase) CanCancel() bool { return p.Status == PurchaseStatusPendiente }

// IsValidPurchaseStatus valida un filtro o transición contra el enum.
func IsValidPurchaseStatus(s string) bool {
	switch s {
	case PurchaseStatusPendiente, PurchaseStatusRecibida, PurchaseStatusCancelada:
		return true
	}
	return false
}
