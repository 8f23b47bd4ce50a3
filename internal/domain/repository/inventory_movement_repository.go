package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain/entity"
)

// MovementFilter filtros del kardex de un almacén.
type MovementFilter struct {
	WarehouseID uuid.UUID
	VariantID   *uuid.UUID
	Type        string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// InventoryMovementRepository puerto append-only: no existe Update ni Delete.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, int, error)
}
