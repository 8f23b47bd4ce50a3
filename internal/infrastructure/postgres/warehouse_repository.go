package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo lectura de almacenes activos del tenant.
type WarehouseRepo struct {
	q        Querier
	tenantID uuid.UUID
}

// NewWarehouseRepository construye el adaptador de persistencia para almacenes.
func NewWarehouseRepository(q Querier, tenantID uuid.UUID) *WarehouseRepo {
	return &WarehouseRepo{q: q, tenantID: tenantID}
}

// GetByID obtiene un almacén activo; nil si no existe en el tenant.
func (r *WarehouseRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Warehouse, error) {
	q := newTenantQuery("a.", r.tenantID).add("a.id_almacen = ?", id)
	sql := `SELECT a.id_almacen, a.id_empresa, a.id_sucursal, a.nombre, a.id_estado, a.created_at, a.updated_at
		FROM almacen a JOIN cat_estado e ON e.id_estado = a.id_estado AND lower(e.clave) = '` + entity.EstadoActivo + `'` +
		q.where()
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, sql, q.args...).Scan(
		&w.ID, &w.TenantID, &w.BranchID, &w.Name, &w.EstadoID, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get almacen", err)
	}
	return &w, nil
}
