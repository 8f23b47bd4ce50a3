package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const inventoryColumns = `id_almacen, id_producto_variante, id_empresa, stock_actual,
	COALESCE(stock_minimo, 0), COALESCE(stock_maximo, 0), COALESCE(costo_promedio, 0), COALESCE(ultimo_costo, 0),
	created_by, modified_by, created_at, updated_at`

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (tabla inventario).
type InventoryRepo struct {
	q        Querier
	tenantID uuid.UUID
}

// NewInventoryRepository construye el adaptador. Pasar la tx del gate.
func NewInventoryRepository(q Querier, tenantID uuid.UUID) *InventoryRepo {
	return &InventoryRepo{q: q, tenantID: tenantID}
}

func scanInventory(row pgx.Row) (*entity.InventoryRecord, error) {
	var r entity.InventoryRecord
	err := row.Scan(
		&r.WarehouseID, &r.VariantID, &r.TenantID, &r.StockOnHand,
		&r.StockMinimum, &r.StockMaximum, &r.WeightedAverageCost, &r.LastUnitCost,
		&r.CreatedBy, &r.ModifiedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *InventoryRepo) get(ctx context.Context, warehouseID, variantID uuid.UUID, lock bool) (*entity.InventoryRecord, error) {
	q := newTenantQuery("", r.tenantID).
		add("id_almacen = ?", warehouseID).
		add("id_producto_variante = ?", variantID)
	sql := `SELECT ` + inventoryColumns + ` FROM inventario` + q.where()
	if lock {
		sql += ` FOR UPDATE`
	}
	rec, err := scanInventory(r.q.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get inventario", err)
	}
	return rec, nil
}

// Get obtiene el registro sin bloquear.
func (r *InventoryRepo) Get(ctx context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error) {
	return r.get(ctx, warehouseID, variantID, false)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryRepo) GetForUpdate(ctx context.Context, warehouseID, variantID uuid.UUID) (*entity.InventoryRecord, error) {
	return r.get(ctx, warehouseID, variantID, true)
}

// Create inserta el registro; si la fila ya existe (o la insertó otra transacción que
// acaba de confirmar) no hace nada y devuelve false.
func (r *InventoryRepo) Create(ctx context.Context, rec *entity.InventoryRecord) (bool, error) {
	query := `
		INSERT INTO inventario (id_almacen, id_producto_variante, id_empresa, stock_actual, stock_minimo, stock_maximo,
			costo_promedio, ultimo_costo, created_by, modified_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		ON CONFLICT (id_almacen, id_producto_variante) DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		rec.WarehouseID, rec.VariantID, r.tenantID, rec.StockOnHand, rec.StockMinimum, rec.StockMaximum,
		rec.WeightedAverageCost, rec.LastUnitCost, rec.CreatedBy, rec.ModifiedBy,
	)
	if err != nil {
		return false, mapError("insert inventario", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update escribe stock y costos. La fila debe estar bloqueada por GetForUpdate en la misma tx.
func (r *InventoryRepo) Update(ctx context.Context, rec *entity.InventoryRecord) error {
	q := newTenantQuery("", r.tenantID).
		add("id_almacen = ?", rec.WarehouseID).
		add("id_producto_variante = ?", rec.VariantID)
	sql := `UPDATE inventario SET stock_actual = ` + q.arg(rec.StockOnHand) +
		`, costo_promedio = ` + q.arg(rec.WeightedAverageCost) +
		`, ultimo_costo = ` + q.arg(rec.LastUnitCost) +
		`, modified_by = ` + q.arg(rec.ModifiedBy) +
		`, updated_at = now()` + q.where()
	tag, err := r.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return mapError("update inventario", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update inventario: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateThresholds actualiza stock_minimo y stock_maximo.
func (r *InventoryRepo) UpdateThresholds(ctx context.Context, warehouseID, variantID uuid.UUID, minimum, maximum decimal.Decimal, modifiedBy uuid.UUID) error {
	q := newTenantQuery("", r.tenantID).
		add("id_almacen = ?", warehouseID).
		add("id_producto_variante = ?", variantID)
	sql := `UPDATE inventario SET stock_minimo = ` + q.arg(minimum) +
		`, stock_maximo = ` + q.arg(maximum) +
		`, modified_by = ` + q.arg(modifiedBy) +
		`, updated_at = now()` + q.where()
	tag, err := r.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return mapError("update umbrales", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista registros con filtros; devuelve además el total sin paginar.
func (r *InventoryRepo) List(ctx context.Context, f repository.InventoryFilter) ([]*entity.InventoryRecord, int, error) {
	q := newTenantQuery("", r.tenantID)
	if f.WarehouseID != nil {
		q.add("id_almacen = ?", *f.WarehouseID)
	}
	if f.VariantID != nil {
		q.add("id_producto_variante = ?", *f.VariantID)
	}
	if f.LowStock {
		q.add("stock_actual <= COALESCE(stock_minimo, 0)")
	}
	if f.Managed {
		q.add("stock_minimo > 0")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM inventario`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count inventario", err)
	}

	sql := `SELECT ` + inventoryColumns + ` FROM inventario` + q.where() +
		` ORDER BY id_almacen, id_producto_variante` + q.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, 0, mapError("list inventario", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, 0, mapError("scan inventario", err)
		}
		list = append(list, rec)
	}
	return list, total, rows.Err()
}
