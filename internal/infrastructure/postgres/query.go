package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// tenantQuery arma cláusulas WHERE parametrizadas que siempre empiezan con el predicado
// de tenant. Es el único lugar donde se agrega id_empresa a las consultas; RLS en la base
// aplica además la misma restricción.
type tenantQuery struct {
	conds []string
	args  []any
}

// newTenantQuery inicia la cláusula con "<alias>id_empresa = $1".
func newTenantQuery(alias string, tenantID uuid.UUID) *tenantQuery {
	q := &tenantQuery{}
	q.add(alias+"id_empresa = ?", tenantID)
	return q
}

// add agrega una condición; cada "?" se reemplaza por el siguiente placeholder ($n).
func (q *tenantQuery) add(cond string, args ...any) *tenantQuery {
	for _, a := range args {
		q.args = append(q.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(q.args)), 1)
	}
	q.conds = append(q.conds, cond)
	return q
}

// arg registra un argumento fuera del WHERE (LIMIT, SET) y devuelve su placeholder.
func (q *tenantQuery) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *tenantQuery) where() string {
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// page agrega LIMIT/OFFSET si limit > 0.
func (q *tenantQuery) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + q.arg(limit) + " OFFSET " + q.arg(offset)
}

// nullString devuelve nil para cadenas vacías (columnas TEXT opcionales).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
