package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain/entity"
)

// WarehouseRepository lectura de almacenes del tenant; el CRUD vive en el catálogo.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Warehouse, error)
}
