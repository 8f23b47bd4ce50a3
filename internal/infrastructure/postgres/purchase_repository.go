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

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

const purchaseColumns = `id_compra, id_empresa, id_proveedor, id_almacen, numero_compra, fecha_compra, fecha_entrega,
	subtotal, impuestos, total, COALESCE(observaciones, ''), estado_compra, id_estado,
	created_by, modified_by, created_at, updated_at`

const lineColumns = `d.id_compra_detalle, d.id_compra, d.id_producto_variante, d.cantidad_pedida,
	COALESCE(d.cantidad_recibida, 0), d.costo_unitario, d.subtotal, d.created_at`

// PurchaseRepo implementación de PurchaseRepository sobre PostgreSQL (compra, compra_detalle).
// compra_detalle no tiene id_empresa: el tenant se filtra por join con compra.
type PurchaseRepo struct {
	q        Querier
	tenantID uuid.UUID
}

// NewPurchaseRepository construye el adaptador. Pasar la tx del gate.
func NewPurchaseRepository(q Querier, tenantID uuid.UUID) *PurchaseRepo {
	return &PurchaseRepo{q: q, tenantID: tenantID}
}

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	err := row.Scan(
		&p.ID, &p.TenantID, &p.SupplierID, &p.WarehouseID, &p.Number, &p.PurchaseDate, &p.DeliveryDate,
		&p.Subtotal, &p.Taxes, &p.Total, &p.Notes, &p.Status, &p.EstadoID,
		&p.CreatedBy, &p.ModifiedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanLine(row pgx.Row) (*entity.PurchaseLine, error) {
	var l entity.PurchaseLine
	err := row.Scan(
		&l.ID, &l.PurchaseID, &l.VariantID, &l.QuantityOrdered,
		&l.QuantityReceived, &l.UnitCost, &l.Subtotal, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserta la compra y sus líneas (misma transacción del gate).
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	query := `
		INSERT INTO compra (id_compra, id_empresa, id_proveedor, id_almacen, numero_compra, fecha_compra, fecha_entrega,
			subtotal, impuestos, total, observaciones, estado_compra, id_estado, created_by, modified_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		p.ID, r.tenantID, p.SupplierID, p.WarehouseID, p.Number, p.PurchaseDate, p.DeliveryDate,
		p.Subtotal, p.Taxes, p.Total, nullString(p.Notes), p.Status, p.EstadoID,
		p.CreatedBy, p.ModifiedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de compra %q: %w", p.Number, domain.ErrDuplicate)
		}
		return mapError("insert compra", err)
	}

	lineQuery := `
		INSERT INTO compra_detalle (id_compra_detalle, id_compra, id_producto_variante, cantidad_pedida,
			cantidad_recibida, costo_unitario, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range p.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, p.ID, l.VariantID, l.QuantityOrdered, l.QuantityReceived, l.UnitCost, l.Subtotal, l.CreatedAt,
		); err != nil {
			return mapError("insert compra_detalle", err)
		}
	}
	return nil
}

func (r *PurchaseRepo) get(ctx context.Context, id, estadoID uuid.UUID, lock bool) (*entity.Purchase, error) {
	q := newTenantQuery("", r.tenantID).
		add("id_compra = ?", id).
		add("id_estado = ?", estadoID)
	sql := `SELECT ` + purchaseColumns + ` FROM compra` + q.where()
	if lock {
		sql += ` FOR UPDATE`
	}
	p, err := scanPurchase(r.q.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get compra", err)
	}
	return p, nil
}

// GetByID obtiene una compra del tenant en el estado indicado.
func (r *PurchaseRepo) GetByID(ctx context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error) {
	return r.get(ctx, id, estadoID, false)
}

// GetForUpdate obtiene la compra y bloquea su fila.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id, estadoID uuid.UUID) (*entity.Purchase, error) {
	return r.get(ctx, id, estadoID, true)
}

// ListLines devuelve el detalle de la compra en orden de alta.
func (r *PurchaseRepo) ListLines(ctx context.Context, purchaseID uuid.UUID) ([]entity.PurchaseLine, error) {
	q := newTenantQuery("c.", r.tenantID).add("d.id_compra = ?", purchaseID)
	sql := `SELECT ` + lineColumns + ` FROM compra_detalle d JOIN compra c ON c.id_compra = d.id_compra` +
		q.where() + ` ORDER BY d.created_at, d.id_compra_detalle`
	rows, err := r.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, mapError("list compra_detalle", err)
	}
	defer rows.Close()
	lines := []entity.PurchaseLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, mapError("scan compra_detalle", err)
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

// FindLineByVariant devuelve la línea de la variante o nil si no está en la compra.
func (r *PurchaseRepo) FindLineByVariant(ctx context.Context, purchaseID, variantID uuid.UUID) (*entity.PurchaseLine, error) {
	q := newTenantQuery("c.", r.tenantID).
		add("d.id_compra = ?", purchaseID).
		add("d.id_producto_variante = ?", variantID)
	sql := `SELECT ` + lineColumns + ` FROM compra_detalle d JOIN compra c ON c.id_compra = d.id_compra` +
		q.where() + ` ORDER BY d.created_at, d.id_compra_detalle LIMIT 1`
	l, err := scanLine(r.q.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get compra_detalle", err)
	}
	return l, nil
}

// AddReceivedQuantity suma quantity a cantidad_recibida.
func (r *PurchaseRepo) AddReceivedQuantity(ctx context.Context, lineID uuid.UUID, quantity decimal.Decimal) error {
	q := newTenantQuery("c.", r.tenantID).
		add("c.id_compra = d.id_compra").
		add("d.id_compra_detalle = ?", lineID)
	sql := `UPDATE compra_detalle d SET cantidad_recibida = COALESCE(d.cantidad_recibida, 0) + ` + q.arg(quantity) +
		` FROM compra c` + q.where()
	tag, err := r.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return mapError("update cantidad_recibida", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus cambia estado_compra.
func (r *PurchaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, modifiedBy uuid.UUID) error {
	return r.update(ctx, id, "estado_compra", status, modifiedBy)
}

// UpdateEstado cambia id_estado (borrado lógico).
func (r *PurchaseRepo) UpdateEstado(ctx context.Context, id, estadoID, modifiedBy uuid.UUID) error {
	return r.update(ctx, id, "id_estado", estadoID, modifiedBy)
}

// update column viene siempre de una constante de este archivo.
func (r *PurchaseRepo) update(ctx context.Context, id uuid.UUID, column string, value any, modifiedBy uuid.UUID) error {
	q := newTenantQuery("", r.tenantID).add("id_compra = ?", id)
	sql := `UPDATE compra SET ` + column + ` = ` + q.arg(value) +
		`, modified_by = ` + q.arg(modifiedBy) + `, updated_at = now()` + q.where()
	tag, err := r.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return mapError("update compra", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista compras con filtros; devuelve además el total sin paginar.
func (r *PurchaseRepo) List(ctx context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, int, error) {
	q := newTenantQuery("", r.tenantID).add("id_estado = ?", f.EstadoID)
	if f.SupplierID != nil {
		q.add("id_proveedor = ?", *f.SupplierID)
	}
	if f.WarehouseID != nil {
		q.add("id_almacen = ?", *f.WarehouseID)
	}
	if f.Status != "" {
		q.add("estado_compra = ?", f.Status)
	}
	if f.From != nil {
		q.add("fecha_compra >= ?", *f.From)
	}
	if f.To != nil {
		q.add("fecha_compra <= ?", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM compra`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count compras", err)
	}

	sql := `SELECT ` + purchaseColumns + ` FROM compra` + q.where() +
		` ORDER BY fecha_compra DESC, numero_compra DESC` + q.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, 0, mapError("list compras", err)
	}
	defer rows.Close()
	var list []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, mapError("scan compra", err)
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}
