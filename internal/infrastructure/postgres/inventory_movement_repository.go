package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo kardex sobre PostgreSQL (tabla movimiento_inventario). Solo inserta y lee.
type InventoryMovementRepo struct {
	q        Querier
	tenantID uuid.UUID
}

// NewInventoryMovementRepository construye el adaptador. Pasar la tx del gate.
func NewInventoryMovementRepository(q Querier, tenantID uuid.UUID) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q, tenantID: tenantID}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO movimiento_inventario (id_movimiento, id_empresa, id_almacen, id_producto_variante, tipo_movimiento,
			referencia_tipo, referencia_id, cantidad, costo_unitario, stock_anterior, stock_nuevo, observaciones,
			created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, r.tenantID, m.WarehouseID, m.VariantID, m.Type,
		nullString(m.ReferenceType), m.ReferenceID, m.Quantity, m.UnitCost, m.StockBefore, m.StockAfter,
		nullString(m.Note), m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return mapError("create movimiento", err)
	}
	return nil
}

// List kardex de un almacén, del más reciente al más antiguo.
func (r *InventoryMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, int, error) {
	q := newTenantQuery("", r.tenantID).add("id_almacen = ?", f.WarehouseID)
	if f.VariantID != nil {
		q.add("id_producto_variante = ?", *f.VariantID)
	}
	if f.Type != "" {
		q.add("tipo_movimiento = ?", f.Type)
	}
	if f.From != nil {
		q.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q.add("created_at <= ?", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM movimiento_inventario`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count movimientos", err)
	}

	sql := `SELECT id_movimiento, id_empresa, id_almacen, id_producto_variante, tipo_movimiento,
			COALESCE(referencia_tipo, ''), referencia_id, cantidad, COALESCE(costo_unitario, 0),
			stock_anterior, stock_nuevo, COALESCE(observaciones, ''), created_by, created_at
		FROM movimiento_inventario` + q.where() +
		` ORDER BY created_at DESC, id_movimiento DESC` + q.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, 0, mapError("list movimientos", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.WarehouseID, &m.VariantID, &m.Type,
			&m.ReferenceType, &m.ReferenceID, &m.Quantity, &m.UnitCost,
			&m.StockBefore, &m.StockAfter, &m.Note, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, 0, mapError("scan movimiento", err)
		}
		list = append(list, &m)
	}
	return list, total, rows.Err()
}
