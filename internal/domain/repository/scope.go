package repository

import (
	"context"

	"github.com/megaventa/pos-api/internal/domain/tenant"
)

// Scope es la capacidad que entrega el gate de aislamiento: repositorios atados a una
// transacción y a un tenant. No hay otra forma de obtener repositorios de datos por tenant.
type Scope interface {
	Tenant() tenant.Context
	Inventory() InventoryRepository
	Movements() InventoryMovementRepository
	Purchases() PurchaseRepository
	Warehouses() WarehouseRepository
	// Savepoint ejecuta fn en un savepoint anidado; si fn falla solo se deshace lo suyo.
	Savepoint(ctx context.Context, fn func(ctx context.Context, s Scope) error) error
}

// TxRunner abre una transacción con el tenant ligado a la sesión y entrega el Scope.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, tc tenant.Context, fn func(ctx context.Context, s Scope) error) error
}
