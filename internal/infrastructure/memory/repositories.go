package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
)

type inventoryRepo struct{ scope *scope }

func (r *inventoryRepo) key(warehouseID, variantID uuid.UUID) inventoryKey {
	return inventoryKey{tenantID: r.scope.tc.TenantID, warehouseID: warehouseID, variantID: variantID}
}

func (r *inventoryRepo) Get(_ context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error) {
	if err := r.scope.st.check("inventory.get", variantID); err != nil {
		return nil, err
	}
	rec, ok := r.scope.st.data.inventory[r.key(warehouseID, variantID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *inventoryRepo) GetForUpdate(_ context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error) {
	if err := r.scope.st.check("inventory.get_for_update", variantID); err != nil {
		return nil, err
	}
	rec, ok := r.scope.st.data.inventory[r.key(warehouseID, variantID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *inventoryRepo) Create(_ context.Context, record *entity.InventoryRecord) (bool, error) {
	if err := r.scope.st.check("inventory.create", record.VariantID); err != nil {
		return false, err
	}
	k := r.key(record.WarehouseID, record.VariantID)
	if _, ok := r.scope.st.data.inventory[k]; ok {
		return false, nil
	}
	rec := *record
	rec.TenantID = r.scope.tc.TenantID
	r.scope.st.data.inventory[k] = rec
	return true, nil
}

func (r *inventoryRepo) Update(_ context.Context, record *entity.InventoryRecord) error {
	if err := r.scope.st.check("inventory.update", record.VariantID); err != nil {
		return err
	}
	k := r.key(record.WarehouseID, record.VariantID)
	rec, ok := r.scope.st.data.inventory[k]
	if !ok {
		return domain.ErrNotFound
	}
	rec.StockOnHand = record.StockOnHand
	rec.WeightedAverageCost = record.WeightedAverageCost
	rec.LastUnitCost = record.LastUnitCost
	rec.ModifiedBy = record.ModifiedBy
	rec.UpdatedAt = record.UpdatedAt
	r.scope.st.data.inventory[k] = rec
	return nil
}

func (r *inventoryRepo) UpdateThresholds(_ context.Context, warehouseID, variantID uuid.UUID, minimum, maximum decimal.Decimal, modifiedBy uuid.UUID) error {
	k := r.key(warehouseID, variantID)
	rec, ok := r.scope.st.data.inventory[k]
	if !ok {
		return domain.ErrNotFound
	}
	rec.StockMinimum = minimum
	rec.StockMaximum = maximum
	rec.ModifiedBy = modifiedBy
	r.scope.st.data.inventory[k] = rec
	return nil
}

func (r *inventoryRepo) List(_ context.Context, f repository.InventoryFilter) ([]*entity.InventoryRecord, int, error) {
	var all []*entity.InventoryRecord
	for k, v := range r.scope.st.data.inventory {
		if k.tenantID != r.scope.tc.TenantID {
			continue
		}
		if f.WarehouseID != nil && v.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.VariantID != nil && v.VariantID != *f.VariantID {
			continue
		}
		if f.LowStock && !v.IsLowStock() {
			continue
		}
		if f.Managed && !v.StockMinimum.IsPositive() {
			continue
		}
		rec := v
		all = append(all, &rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].WarehouseID != all[j].WarehouseID {
			return all[i].WarehouseID.String() < all[j].WarehouseID.String()
		}
		return all[i].VariantID.String() < all[j].VariantID.String()
	})
	return page(all, f.Limit, f.Offset), len(all), nil
}

type movementRepo struct{ scope *scope }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if err := r.scope.st.check("movements.create", m.VariantID); err != nil {
		return err
	}
	mov := *m
	mov.TenantID = r.scope.tc.TenantID
	r.scope.st.data.movements = append(r.scope.st.data.movements, mov)
	return nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, int, error) {
	var all []*entity.InventoryMovement
	movs := r.scope.st.data.movements
	// Más reciente primero: se recorre en orden inverso de inserción
	for i := len(movs) - 1; i >= 0; i-- {
		m := movs[i]
		if m.TenantID != r.scope.tc.TenantID || m.WarehouseID != f.WarehouseID {
			continue
		}
		if f.VariantID != nil && m.VariantID != *f.VariantID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		all = append(all, &m)
	}
	return page(all, f.Limit, f.Offset), len(all), nil
}

type purchaseRepo struct{ scope *scope }

func (r *purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	if err := r.scope.st.check("purchases.create", uuid.Nil); err != nil {
		return err
	}
	data := r.scope.st.data
	for _, other := range data.purchases {
		if other.TenantID == r.scope.tc.TenantID && other.Number == p.Number && other.EstadoID == p.EstadoID {
			return domain.ErrDuplicate
		}
	}
	stored := *p
	stored.TenantID = r.scope.tc.TenantID
	stored.Lines = nil
	data.purchases[p.ID] = stored
	lines := make([]entity.PurchaseLine, len(p.Lines))
	copy(lines, p.Lines)
	data.lines[p.ID] = lines
	return nil
}

func (r *purchaseRepo) get(id, estadoID uuid.UUID) *entity.Purchase {
	p, ok := r.scope.st.data.purchases[id]
	if !ok || p.TenantID != r.scope.tc.TenantID || p.EstadoID != estadoID {
		return nil
	}
	return &p
}

func (r *purchaseRepo) GetByID(_ context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error) {
	return r.get(id, estadoID), nil
}

func (r *purchaseRepo) GetForUpdate(_ context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error) {
	if err := r.scope.st.check("purchases.get_for_update", uuid.Nil); err != nil {
		return nil, err
	}
	return r.get(id, estadoID), nil
}

func (r *purchaseRepo) owned(purchaseID uuid.UUID) bool {
	p, ok := r.scope.st.data.purchases[purchaseID]
	return ok && p.TenantID == r.scope.tc.TenantID
}

func (r *purchaseRepo) ListLines(_ context.Context, purchaseID uuid.UUID) ([]entity.PurchaseLine, error) {
	if !r.owned(purchaseID) {
		return []entity.PurchaseLine{}, nil
	}
	return append([]entity.PurchaseLine{}, r.scope.st.data.lines[purchaseID]...), nil
}

func (r *purchaseRepo) FindLineByVariant(_ context.Context, purchaseID, variantID uuid.UUID) (*entity.PurchaseLine, error) {
	if !r.owned(purchaseID) {
		return nil, nil
	}
	for _, l := range r.scope.st.data.lines[purchaseID] {
		if l.VariantID == variantID {
			line := l
			return &line, nil
		}
	}
	return nil, nil
}

func (r *purchaseRepo) AddReceivedQuantity(_ context.Context, lineID uuid.UUID, quantity decimal.Decimal) error {
	data := r.scope.st.data
	for pid, lines := range data.lines {
		if !r.owned(pid) {
			continue
		}
		for i := range lines {
			if lines[i].ID != lineID {
				continue
			}
			if err := r.scope.st.check("purchases.add_received", lines[i].VariantID); err != nil {
				return err
			}
			lines[i].QuantityReceived = lines[i].QuantityReceived.Add(quantity)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *purchaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, modifiedBy uuid.UUID) error {
	if err := r.scope.st.check("purchases.update_status", uuid.Nil); err != nil {
		return err
	}
	if !r.owned(id) {
		return domain.ErrNotFound
	}
	p := r.scope.st.data.purchases[id]
	p.Status = status
	p.ModifiedBy = modifiedBy
	r.scope.st.data.purchases[id] = p
	return nil
}

func (r *purchaseRepo) UpdateEstado(_ context.Context, id, estadoID, modifiedBy uuid.UUID) error {
	if !r.owned(id) {
		return domain.ErrNotFound
	}
	p := r.scope.st.data.purchases[id]
	p.EstadoID = estadoID
	p.ModifiedBy = modifiedBy
	r.scope.st.data.purchases[id] = p
	return nil
}

func (r *purchaseRepo) List(_ context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, int, error) {
	var all []*entity.Purchase
	for _, v := range r.scope.st.data.purchases {
		if v.TenantID != r.scope.tc.TenantID || v.EstadoID != f.EstadoID {
			continue
		}
		if f.SupplierID != nil && v.SupplierID != *f.SupplierID {
			continue
		}
		if f.WarehouseID != nil && v.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.From != nil && v.PurchaseDate.Before(*f.From) {
			continue
		}
		if f.To != nil && v.PurchaseDate.After(*f.To) {
			continue
		}
		p := v
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].PurchaseDate.Equal(all[j].PurchaseDate) {
			return all[i].PurchaseDate.After(all[j].PurchaseDate)
		}
		return all[i].Number > all[j].Number
	})
	return page(all, f.Limit, f.Offset), len(all), nil
}

type warehouseRepo struct{ scope *scope }

func (r *warehouseRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Warehouse, error) {
	w, ok := r.scope.st.data.warehouses[id]
	if !ok || w.TenantID != r.scope.tc.TenantID || w.EstadoID != r.scope.st.estados[entity.EstadoActivo] {
		return nil, nil
	}
	return &w, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
