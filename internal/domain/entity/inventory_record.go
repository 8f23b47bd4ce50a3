package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord existencia de una variante en un almacén (tabla inventario).
// Llave compuesta (WarehouseID, VariantID); se crea en la primera entrada y nunca se borra.
// Solo el ledger de inventario modifica StockOnHand y los costos.
type InventoryRecord struct {
	WarehouseID         uuid.UUID
	VariantID           uuid.UUID
	TenantID            uuid.UUID
	StockOnHand         decimal.Decimal
	StockMinimum        decimal.Decimal // umbral informativo, sin enforcement
	StockMaximum        decimal.Decimal
	WeightedAverageCost decimal.Decimal // solo significativo con StockOnHand > 0
	LastUnitCost        decimal.Decimal
	CreatedBy           uuid.UUID
	ModifiedBy          uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLowStock indica stock_actual <= stock_minimo (mismo criterio del listado "stock bajo").
func (r *InventoryRecord) IsLowStock() bool {
	return r.StockOnHand.LessThanOrEqual(r.StockMinimum)
}
