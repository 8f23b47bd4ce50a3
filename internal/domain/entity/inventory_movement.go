package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeEntrada = "ENTRADA"
	MovementTypeSalida  = "SALIDA"
)

// Tipos de referencia de un movimiento.
const (
	ReferenceCompra  = "COMPRA"
	ReferenceAjuste  = "AJUSTE"
	ReferenceInicial = "INICIAL"
)

// InventoryMovement registro inmutable de cada cambio de stock (tabla movimiento_inventario).
// Quantity siempre es positiva; el signo lo da Type.
type InventoryMovement struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	WarehouseID   uuid.UUID
	VariantID     uuid.UUID
	Type          string
	ReferenceType string
	ReferenceID   *uuid.UUID
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	StockBefore   decimal.Decimal
	StockAfter    decimal.Decimal
	Note          string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// SignedQuantity cantidad con signo: positiva para ENTRADA, negativa para SALIDA.
func (m *InventoryMovement) SignedQuantity() decimal.Decimal {
	if m.Type == MovementTypeSalida {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// IsValidMovementType valida el tipo contra el catálogo mínimo.
func IsValidMovementType(t string) bool {
	return t == MovementTypeEntrada || t == MovementTypeSalida
}
