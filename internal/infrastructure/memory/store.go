// Package memory implementa el contrato del gate de aislamiento en proceso:
// transacciones por snapshot/restauración y filtro de tenant en cada operación.
// Se usa con STORE_DRIVER=memory y en las pruebas de casos de uso y HTTP.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
)

type inventoryKey struct {
	tenantID    uuid.UUID
	warehouseID uuid.UUID
	variantID   uuid.UUID
}

type state struct {
	inventory  map[inventoryKey]entity.InventoryRecord
	movements  []entity.InventoryMovement
	purchases  map[uuid.UUID]entity.Purchase
	lines      map[uuid.UUID][]entity.PurchaseLine // por compra, en orden de alta
	warehouses map[uuid.UUID]entity.Warehouse
}

func newState() *state {
	return &state{
		inventory:  map[inventoryKey]entity.InventoryRecord{},
		purchases:  map[uuid.UUID]entity.Purchase{},
		lines:      map[uuid.UUID][]entity.PurchaseLine{},
		warehouses: map[uuid.UUID]entity.Warehouse{},
	}
}

// clone copia el estado; las entidades se guardan por valor y sus punteros nunca se mutan.
func (s *state) clone() *state {
	c := &state{
		inventory:  make(map[inventoryKey]entity.InventoryRecord, len(s.inventory)),
		movements:  make([]entity.InventoryMovement, len(s.movements)),
		purchases:  make(map[uuid.UUID]entity.Purchase, len(s.purchases)),
		lines:      make(map[uuid.UUID][]entity.PurchaseLine, len(s.lines)),
		warehouses: make(map[uuid.UUID]entity.Warehouse, len(s.warehouses)),
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	copy(c.movements, s.movements)
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]entity.PurchaseLine(nil), v...)
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	return c
}

// FaultFunc permite a las pruebas hacer fallar una operación: op es el nombre de la
// operación (p. ej. "inventory.get_for_update") y variantID la variante afectada, si aplica.
type FaultFunc func(op string, variantID uuid.UUID) error

// Store almacén transaccional en memoria. Las transacciones se serializan con un mutex
// global, equivalente a que cada una tome todos los bloqueos de fila.
type Store struct {
	mu      sync.Mutex
	data    *state
	estados map[string]uuid.UUID
	fault   FaultFunc
}

// NewStore crea un almacén vacío con el catálogo cat_estado sembrado ("act", "del").
func NewStore() *Store {
	return &Store{
		data: newState(),
		estados: map[string]uuid.UUID{
			entity.EstadoActivo:  uuid.New(),
			entity.EstadoBorrado: uuid.New(),
		},
	}
}

// SetFault instala (o con nil quita) un inyector de fallas.
func (st *Store) SetFault(f FaultFunc) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.fault = f
}

// AddWarehouse siembra un almacén (el catálogo de almacenes no se administra por esta API).
func (st *Store) AddWarehouse(w entity.Warehouse) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if w.EstadoID == uuid.Nil {
		w.EstadoID = st.estados[entity.EstadoActivo]
	}
	st.data.warehouses[w.ID] = w
}

// Lookups repositorio de cat_estado (global).
func (st *Store) Lookups() repository.LookupRepository {
	return lookupRepo{estados: st.estados}
}

// Run ejecuta fn en una transacción: si fn falla o el contexto se cancela el estado se restaura.
func (st *Store) Run(ctx context.Context, tc tenant.Context, fn func(ctx context.Context, s repository.Scope) error) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	snapshot := st.data.clone()
	err := fn(ctx, &scope{st: st, tc: tc})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		st.data = snapshot
		return err
	}
	return nil
}

func (st *Store) check(op string, variantID uuid.UUID) error {
	if st.fault == nil {
		return nil
	}
	return st.fault(op, variantID)
}

// scope Scope ligado a una transacción en curso; el mutex ya está tomado por Run.
type scope struct {
	st *Store
	tc tenant.Context
}

func (s *scope) Tenant() tenant.Context { return s.tc }

func (s *scope) Inventory() repository.InventoryRepository {
	return &inventoryRepo{scope: s}
}

func (s *scope) Movements() repository.InventoryMovementRepository {
	return &movementRepo{scope: s}
}

func (s *scope) Purchases() repository.PurchaseRepository {
	return &purchaseRepo{scope: s}
}

func (s *scope) Warehouses() repository.WarehouseRepository {
	return &warehouseRepo{scope: s}
}

func (s *scope) Savepoint(ctx context.Context, fn func(ctx context.Context, s repository.Scope) error) error {
	snapshot := s.st.data.clone()
	if err := fn(ctx, s); err != nil {
		s.st.data = snapshot
		return err
	}
	return nil
}

type lookupRepo struct {
	estados map[string]uuid.UUID
}

func (r lookupRepo) FindEstadoID(_ context.Context, key string) (uuid.UUID, error) {
	id, ok := r.estados[key]
	if !ok {
		return uuid.Nil, domain.ErrUnknownLookupKey
	}
	return id, nil
}
