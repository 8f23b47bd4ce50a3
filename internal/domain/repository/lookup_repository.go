package repository

import (
	"context"

	"github.com/google/uuid"
)

// LookupRepository consulta la tabla de referencia cat_estado (global, no por tenant).
type LookupRepository interface {
	// FindEstadoID busca por clave normalizada; sin coincidencia devuelve domain.ErrUnknownLookupKey.
	FindEstadoID(ctx context.Context, key string) (uuid.UUID, error)
}
