package entity

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse almacén donde se recibe inventario. El ledger solo lo referencia por ID.
type Warehouse struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	BranchID  uuid.UUID
	Name      string
	EstadoID  uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
