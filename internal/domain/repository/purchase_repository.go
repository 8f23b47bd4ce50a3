package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain/entity"
)

// PurchaseFilter filtros del listado de compras. EstadoID es obligatorio (registros activos).
type PurchaseFilter struct {
	EstadoID    uuid.UUID
	SupplierID  *uuid.UUID
	WarehouseID *uuid.UUID
	Status      string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// PurchaseRepository define el puerto de compra y compra_detalle.
type PurchaseRepository interface {
	// Create persiste la compra y sus líneas.
	Create(ctx context.Context, purchase *entity.Purchase) error
	// GetByID devuelve nil, nil si no existe, está fuera del tenant o en otro estado.
	GetByID(ctx context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error)
	// GetForUpdate igual que GetByID pero bloquea la fila de la compra.
	GetForUpdate(ctx context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error)
	ListLines(ctx context.Context, purchaseID uuid.UUID) ([]entity.PurchaseLine, error)
	// FindLineByVariant devuelve nil, nil si la variante no está en la compra.
	FindLineByVariant(ctx context.Context, purchaseID, variantID uuid.UUID) (*entity.PurchaseLine, error)
	AddReceivedQuantity(ctx context.Context, lineID uuid.UUID, quantity decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, modifiedBy uuid.UUID) error
	UpdateEstado(ctx context.Context, id, estadoID, modifiedBy uuid.UUID) error
	List(ctx context.Context, filter PurchaseFilter) ([]*entity.Purchase, int, error)
}
