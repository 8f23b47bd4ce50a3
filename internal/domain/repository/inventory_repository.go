package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain/entity"
)

// InventoryFilter filtros del listado de existencias.
type InventoryFilter struct {
	WarehouseID *uuid.UUID
	VariantID   *uuid.UUID
	LowStock    bool // stock_actual <= stock_minimo
	Managed     bool // solo stock_minimo > 0
	Limit       int
	Offset      int
}

// InventoryRepository define el puerto de la tabla inventario, siempre acotado al tenant del Scope.
type InventoryRepository interface {
	Get(ctx context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Devuelve nil, nil si aún no existe.
	GetForUpdate(ctx context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error)
	// Create inserta el registro si (almacén, variante) no existe (ON CONFLICT DO NOTHING).
	// Devuelve false si ya existía o lo insertó otra transacción concurrente.
	Create(ctx context.Context, record *entity.InventoryRecord) (bool, error)
	// Update escribe stock y costos de una fila ya bloqueada con GetForUpdate.
	Update(ctx context.Context, record *entity.InventoryRecord) error
	UpdateThresholds(ctx context.Context, warehouseID, variantID uuid.UUID, minimum, maximum decimal.Decimal, modifiedBy uuid.UUID) error
	List(ctx context.Context, filter InventoryFilter) ([]*entity.InventoryRecord, int, error)
}
