package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// bindSessionSQL liga tenant, usuario y límites de espera a la transacción (equivalente a SET LOCAL).
const bindSessionSQL = `SELECT set_config('app.current_tenant', $1, true),
	set_config('app.usuario', $2, true),
	set_config('lock_timeout', $3, true),
	set_config('statement_timeout', $4, true)`

// TxBeginner lo cumple *pgxpool.Pool (y pgxmock en pruebas).
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxRunner gate de aislamiento: toda operación de datos por tenant pasa por Run.
type TxRunner struct {
	db               TxBeginner
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

// NewTxRunner construye el gate. Timeouts en cero dejan el valor del servidor.
func NewTxRunner(db TxBeginner, lockTimeout, statementTimeout time.Duration) *TxRunner {
	return &TxRunner{db: db, lockTimeout: lockTimeout, statementTimeout: statementTimeout}
}

// Run inicia una transacción READ COMMITTED, liga la sesión al tenant, ejecuta fn con un
// Scope atado a la tx y hace Commit; cualquier error (o cancelación del contexto) hace Rollback.
// Un tenant.Context no resuelto se rechaza sin tocar la base.
func (r *TxRunner) Run(ctx context.Context, tc tenant.Context, fn func(ctx context.Context, s repository.Scope) error) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, bindSessionSQL,
		tc.TenantID.String(), tc.ActorID.String(),
		pgDuration(r.lockTimeout), pgDuration(r.statementTimeout),
	); err != nil {
		return fmt.Errorf("%w: ligar sesión: %v", domain.ErrUnauthenticatedContext, err)
	}

	if err := fn(ctx, &scope{tx: tx, tc: tc}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// pgDuration formatea para set_config; "0" desactiva el límite.
func pgDuration(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// scope repositorios atados a una transacción (o savepoint) y al tenant.
type scope struct {
	tx pgx.Tx
	tc tenant.Context
}

func (s *scope) Tenant() tenant.Context { return s.tc }

func (s *scope) Inventory() repository.InventoryRepository {
	return NewInventoryRepository(s.tx, s.tc.TenantID)
}

func (s *scope) Movements() repository.InventoryMovementRepository {
	return NewInventoryMovementRepository(s.tx, s.tc.TenantID)
}

func (s *scope) Purchases() repository.PurchaseRepository {
	return NewPurchaseRepository(s.tx, s.tc.TenantID)
}

func (s *scope) Warehouses() repository.WarehouseRepository {
	return NewWarehouseRepository(s.tx, s.tc.TenantID)
}

// Savepoint usa la transacción anidada de pgx (SAVEPOINT / RELEASE / ROLLBACK TO).
func (s *scope) Savepoint(ctx context.Context, fn func(ctx context.Context, s repository.Scope) error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return mapError("savepoint", err)
	}
	defer func() { _ = sp.Rollback(ctx) }()

	if err := fn(ctx, &scope{tx: sp, tc: s.tc}); err != nil {
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return mapError("release savepoint", err)
	}
	return nil
}
