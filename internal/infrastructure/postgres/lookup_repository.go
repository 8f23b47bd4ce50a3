package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/repository"
)

var _ repository.LookupRepository = (*LookupRepo)(nil)

// LookupRepo consulta cat_estado. Es catálogo global: no pasa por el gate de tenant.
type LookupRepo struct {
	q Querier
}

// NewLookupRepository construye el adaptador con el pool.
func NewLookupRepository(q Querier) *LookupRepo {
	return &LookupRepo{q: q}
}

// FindEstadoID busca el estado por clave (comparación sin mayúsculas).
func (r *LookupRepo) FindEstadoID(ctx context.Context, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.q.QueryRow(ctx, `SELECT id_estado FROM cat_estado WHERE lower(clave) = lower($1) LIMIT 1`, key).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrUnknownLookupKey, key)
		}
		return uuid.Nil, mapError("get cat_estado", err)
	}
	return id, nil
}
