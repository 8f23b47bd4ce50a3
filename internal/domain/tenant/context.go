// Package tenant resuelve la identidad (empresa y usuario) de la unidad de trabajo
// y la transporta en context.Context hasta el gate de aislamiento.
package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/domain"
)

// Context identidad resuelta de una petición. Nunca se persiste.
type Context struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
}

// Resolve valida los dos identificadores opacos del llamador.
// Ausentes, malformados o nil-UUID devuelven domain.ErrUnauthenticatedContext.
func Resolve(tenantID, actorID string) (Context, error) {
	t, err := parseID("tenant", tenantID)
	if err != nil {
		return Context{}, err
	}
	a, err := parseID("usuario", actorID)
	if err != nil {
		return Context{}, err
	}
	return Context{TenantID: t, ActorID: a}, nil
}

func parseID(label, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s requerido", domain.ErrUnauthenticatedContext, label)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s malformado", domain.ErrUnauthenticatedContext, label)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s nulo", domain.ErrUnauthenticatedContext, label)
	}
	return id, nil
}

// Valid indica si ambos identificadores están presentes.
func (c Context) Valid() bool {
	return c.TenantID != uuid.Nil && c.ActorID != uuid.Nil
}

// Validate devuelve ErrUnauthenticatedContext si el contexto no fue resuelto.
func (c Context) Validate() error {
	if !c.Valid() {
		return domain.ErrUnauthenticatedContext
	}
	return nil
}

type ctxKey struct{}

// NewContext guarda el tenant resuelto en ctx.
func NewContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext recupera el tenant; falla si la petición no pasó por Resolve.
func FromContext(ctx context.Context) (Context, error) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	if !ok || !c.Valid() {
		return Context{}, domain.ErrUnauthenticatedContext
	}
	return c, nil
}
