package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
	"github.com/megaventa/pos-api/internal/infrastructure/memory"
	"github.com/megaventa/pos-api/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type env struct {
	store     *memory.Store
	ledger    *inventory.Ledger
	tc        tenant.Context
	warehouse uuid.UUID
}

func newEnv(t *testing.T, allowNegative bool) *env {
	t.Helper()
	st := memory.NewStore()
	tc := tenant.Context{TenantID: uuid.New(), ActorID: uuid.New()}
	wh := uuid.New()
	st.AddWarehouse(entity.Warehouse{ID: wh, TenantID: tc.TenantID, Name: "Principal"})
	return &env{
		store:     st,
		ledger:    inventory.NewLedger(st, allowNegative, logger.Nop()),
		tc:        tc,
		warehouse: wh,
	}
}

func (e *env) record(t *testing.T, variant uuid.UUID) *entity.InventoryRecord {
	t.Helper()
	var rec *entity.InventoryRecord
	require.NoError(t, e.store.Run(context.Background(), e.tc, func(ctx context.Context, s repository.Scope) error {
		var err error
		rec, err = s.Inventory().Get(ctx, e.warehouse, variant)
		return err
	}))
	return rec
}

func (e *env) movements(t *testing.T, variant uuid.UUID) []*entity.InventoryMovement {
	t.Helper()
	var list []*entity.InventoryMovement
	require.NoError(t, e.store.Run(context.Background(), e.tc, func(ctx context.Context, s repository.Scope) error {
		var err error
		list, _, err = s.Movements().List(ctx, repository.MovementFilter{WarehouseID: e.warehouse, VariantID: &variant})
		return err
	}))
	return list
}

func (e *env) receipt(variant uuid.UUID, qty, cost string) inventory.ReceiptInput {
	return inventory.ReceiptInput{
		WarehouseID:   e.warehouse,
		VariantID:     variant,
		Quantity:      dec(qty),
		UnitCost:      dec(cost),
		ReferenceType: entity.ReferenceAjuste,
	}
}

func TestReceive_PromedioPonderado(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	ctx := context.Background()

	m1, err := e.ledger.Receive(ctx, e.tc, e.receipt(v, "10", "5"))
	require.NoError(t, err)
	assert.True(t, m1.StockBefore.IsZero())
	assert.True(t, m1.StockAfter.Equal(dec("10")))

	m2, err := e.ledger.Receive(ctx, e.tc, e.receipt(v, "10", "7"))
	require.NoError(t, err)
	assert.True(t, m2.StockBefore.Equal(dec("10")))
	assert.True(t, m2.StockAfter.Equal(dec("20")))
	assert.Equal(t, entity.MovementTypeEntrada, m2.Type)
	assert.Equal(t, e.tc.ActorID, m2.CreatedBy)

	rec := e.record(t, v)
	require.NotNil(t, rec)
	assert.True(t, rec.StockOnHand.Equal(dec("20")))
	assert.True(t, rec.WeightedAverageCost.Equal(dec("6")), "got %s", rec.WeightedAverageCost)
	assert.True(t, rec.LastUnitCost.Equal(dec("7")))
	assert.Equal(t, e.tc.ActorID, rec.ModifiedBy)
	assert.Len(t, e.movements(t, v), 2)
}

func TestReceive_EntradaInvalida(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	cases := map[string]inventory.ReceiptInput{
		"cantidad cero":     e.receipt(v, "0", "1"),
		"cantidad negativa": e.receipt(v, "-1", "1"),
		"costo negativo":    e.receipt(v, "1", "-0.01"),
		"sin variante":      e.receipt(uuid.Nil, "1", "1"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.ledger.Receive(context.Background(), e.tc, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Nil(t, e.record(t, v))
}

func TestReceive_ConcurrenteSinActualizacionesPerdidas(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	const n = 40

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cost := "5"
			if i%2 == 1 {
				cost = "7"
			}
			_, err := e.ledger.Receive(context.Background(), e.tc, e.receipt(v, "1", cost))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec := e.record(t, v)
	assert.True(t, rec.StockOnHand.Equal(decimal.NewFromInt(n)))

	// stock = suma de movimientos y cada stock_before encadena con el stock_after anterior
	movs := e.movements(t, v)
	require.Len(t, movs, n)
	sum := decimal.Zero
	for i := len(movs) - 1; i >= 0; i-- {
		assert.True(t, movs[i].StockBefore.Equal(sum), "movimiento %d", i)
		sum = sum.Add(movs[i].SignedQuantity())
		assert.True(t, movs[i].StockAfter.Equal(sum))
	}
	assert.True(t, sum.Equal(rec.StockOnHand))
	assert.True(t, rec.WeightedAverageCost.GreaterThanOrEqual(dec("5")))
	assert.True(t, rec.WeightedAverageCost.LessThanOrEqual(dec("7")))
}

func TestReceive_FallaAlRegistrarMovimientoNoDejaRastro(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	_, err := e.ledger.Receive(context.Background(), e.tc, e.receipt(v, "10", "5"))
	require.NoError(t, err)

	e.store.SetFault(func(op string, _ uuid.UUID) error {
		if op == "movements.create" {
			return errors.New("disco lleno")
		}
		return nil
	})
	_, err = e.ledger.Receive(context.Background(), e.tc, e.receipt(v, "10", "9"))
	require.Error(t, err)
	e.store.SetFault(nil)

	rec := e.record(t, v)
	assert.True(t, rec.StockOnHand.Equal(dec("10")))
	assert.True(t, rec.WeightedAverageCost.Equal(dec("5")))
	assert.Len(t, e.movements(t, v), 1)
}

func TestReceive_ConflictoDeBloqueo(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	e.store.SetFault(func(op string, _ uuid.UUID) error {
		if op == "inventory.get_for_update" {
			return domain.ErrLedgerConflict
		}
		return nil
	})
	_, err := e.ledger.Receive(context.Background(), e.tc, e.receipt(v, "1", "1"))
	assert.ErrorIs(t, err, domain.ErrLedgerConflict)
}

func TestApplyIssue(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	ctx := context.Background()
	_, err := e.ledger.Receive(ctx, e.tc, e.receipt(v, "10", "4"))
	require.NoError(t, err)

	issue := func(qty string) (*entity.InventoryMovement, error) {
		var mov *entity.InventoryMovement
		err := e.store.Run(ctx, e.tc, func(ctx context.Context, s repository.Scope) error {
			var err error
			mov, err = e.ledger.ApplyIssue(ctx, s, inventory.IssueInput{
				WarehouseID: e.warehouse, VariantID: v, Quantity: dec(qty), ReferenceType: entity.ReferenceAjuste,
			})
			return err
		})
		return mov, err
	}

	mov, err := issue("3")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeSalida, mov.Type)
	assert.True(t, mov.UnitCost.Equal(dec("4")))
	assert.True(t, mov.StockAfter.Equal(dec("7")))

	_, err = issue("8")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rec := e.record(t, v)
	assert.True(t, rec.StockOnHand.Equal(dec("7")))
	assert.True(t, rec.WeightedAverageCost.Equal(dec("4")))
}

func TestApplyIssue_PermiteNegativo(t *testing.T) {
	e := newEnv(t, true)
	v := uuid.New()
	err := e.store.Run(context.Background(), e.tc, func(ctx context.Context, s repository.Scope) error {
		_, err := e.ledger.ApplyIssue(ctx, s, inventory.IssueInput{WarehouseID: e.warehouse, VariantID: v, Quantity: dec("2")})
		return err
	})
	require.NoError(t, err)
	assert.True(t, e.record(t, v).StockOnHand.Equal(dec("-2")))

	// Con stock negativo la siguiente entrada toma el costo de la entrada
	_, err = e.ledger.Receive(context.Background(), e.tc, e.receipt(v, "5", "3"))
	require.NoError(t, err)
	rec := e.record(t, v)
	assert.True(t, rec.StockOnHand.Equal(dec("3")))
	assert.True(t, rec.WeightedAverageCost.Equal(dec("3")))
}

func TestSetThresholds(t *testing.T) {
	e := newEnv(t, false)
	v := uuid.New()
	ctx := context.Background()

	err := e.ledger.SetThresholds(ctx, e.tc, e.warehouse, v, dec("1"), dec("5"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.ledger.Receive(ctx, e.tc, e.receipt(v, "2", "1"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.ledger.SetThresholds(ctx, e.tc, e.warehouse, v, dec("9"), dec("5")), domain.ErrInvalidInput)
	assert.ErrorIs(t, e.ledger.SetThresholds(ctx, e.tc, e.warehouse, v, dec("-1"), dec("0")), domain.ErrInvalidInput)
	require.NoError(t, e.ledger.SetThresholds(ctx, e.tc, e.warehouse, v, dec("3"), dec("0")))

	rec := e.record(t, v)
	assert.True(t, rec.StockMinimum.Equal(dec("3")))
	assert.True(t, rec.IsLowStock())
}
