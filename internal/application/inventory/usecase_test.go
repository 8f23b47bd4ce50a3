package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/pkg/logger"
)

func newUseCase(e *env) *inventory.UseCase {
	return inventory.NewUseCase(e.store, e.ledger, logger.Nop())
}

func TestCreateInitial(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	ctx := context.Background()
	v := uuid.New()

	out, err := uc.CreateInitial(ctx, e.tc, dto.CreateInventoryRequest{
		WarehouseID:  e.warehouse.String(),
		VariantID:    v.String(),
		InitialStock: dec("12"),
		UnitCost:     dec("2.5"),
		StockMinimum: dec("3"),
		StockMaximum: dec("20"),
	})
	require.NoError(t, err)
	assert.True(t, out.StockOnHand.Equal(dec("12")))
	assert.True(t, out.WeightedAverageCost.Equal(dec("2.5")))
	assert.True(t, out.StockMinimum.Equal(dec("3")))
	assert.False(t, out.LowStock)

	movs := e.movements(t, v)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.ReferenceInicial, movs[0].ReferenceType)

	_, err = uc.CreateInitial(ctx, e.tc, dto.CreateInventoryRequest{WarehouseID: e.warehouse.String(), VariantID: v.String()})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateInitial_SinStock(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	v := uuid.New()

	out, err := uc.CreateInitial(context.Background(), e.tc, dto.CreateInventoryRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), StockMinimum: dec("1"),
	})
	require.NoError(t, err)
	assert.True(t, out.StockOnHand.IsZero())
	assert.True(t, out.LowStock)
	assert.Empty(t, e.movements(t, v))
}

func TestCreateInitial_AlmacenDeOtroTenant(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	otro := e.tc
	otro.TenantID = uuid.New()

	_, err := uc.CreateInitial(context.Background(), otro, dto.CreateInventoryRequest{
		WarehouseID: e.warehouse.String(), VariantID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_NoEncontrado(t *testing.T) {
	e := newEnv(t, false)
	_, err := newUseCase(e).Get(context.Background(), e.tc, e.warehouse, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_StockBajo(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	ctx := context.Background()
	bajo, ok := uuid.New(), uuid.New()

	for v, stock := range map[uuid.UUID]string{bajo: "1", ok: "50"} {
		_, err := uc.CreateInitial(ctx, e.tc, dto.CreateInventoryRequest{
			WarehouseID: e.warehouse.String(), VariantID: v.String(),
			InitialStock: dec(stock), UnitCost: dec("1"), StockMinimum: dec("5"),
		})
		require.NoError(t, err)
	}

	all, err := uc.List(ctx, e.tc, dto.InventoryListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)
	assert.Equal(t, 20, all.Page.Limit)

	low, err := uc.List(ctx, e.tc, dto.InventoryListRequest{LowStock: true, WarehouseID: e.warehouse.String()})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, bajo.String(), low.Items[0].VariantID)

	_, err = uc.List(ctx, e.tc, dto.InventoryListRequest{VariantID: "no-uuid"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjust(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	ctx := context.Background()
	v := uuid.New()

	in, err := uc.Adjust(ctx, e.tc, dto.AdjustmentRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), Type: entity.MovementTypeEntrada,
		Quantity: dec("4"), UnitCost: ptr(dec("10")), Note: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ReferenceAjuste, in.ReferenceType)

	// Sin costo explícito se usa el promedio vigente
	_, err = uc.Adjust(ctx, e.tc, dto.AdjustmentRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), Type: entity.MovementTypeEntrada, Quantity: dec("4"),
	})
	require.NoError(t, err)
	assert.True(t, e.record(t, v).WeightedAverageCost.Equal(dec("10")))

	out, err := uc.Adjust(ctx, e.tc, dto.AdjustmentRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), Type: entity.MovementTypeSalida, Quantity: dec("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeSalida, out.Type)
	assert.True(t, out.StockAfter.Equal(dec("5")))

	_, err = uc.Adjust(ctx, e.tc, dto.AdjustmentRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), Type: entity.MovementTypeSalida, Quantity: dec("30"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.Adjust(ctx, e.tc, dto.AdjustmentRequest{
		WarehouseID: e.warehouse.String(), VariantID: v.String(), Type: "TRASLADO", Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListMovements(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	ctx := context.Background()
	v := uuid.New()
	_, err := e.ledger.Receive(ctx, e.tc, e.receipt(v, "1", "1"))
	require.NoError(t, err)
	_, err = e.ledger.Receive(ctx, e.tc, e.receipt(v, "2", "1"))
	require.NoError(t, err)

	out, err := uc.ListMovements(ctx, e.tc, e.warehouse, dto.MovementListRequest{Type: entity.MovementTypeEntrada})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page.Total)
	assert.True(t, out.Items[0].Quantity.Equal(dec("2")))

	_, err = uc.ListMovements(ctx, e.tc, uuid.Nil, dto.MovementListRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ListMovements(ctx, e.tc, e.warehouse, dto.MovementListRequest{From: "ayer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReplenishment(t *testing.T) {
	e := newEnv(t, false)
	uc := newUseCase(e)
	ctx := context.Background()
	critico, leve, sinMin := uuid.New(), uuid.New(), uuid.New()

	seed := []dto.CreateInventoryRequest{
		{VariantID: critico.String(), InitialStock: dec("1"), UnitCost: dec("2"), StockMinimum: dec("10"), StockMaximum: dec("30")},
		{VariantID: leve.String(), InitialStock: dec("4"), UnitCost: dec("3"), StockMinimum: dec("5")},
		{VariantID: sinMin.String()},
	}
	for _, in := range seed {
		in.WarehouseID = e.warehouse.String()
		_, err := uc.CreateInitial(ctx, e.tc, in)
		require.NoError(t, err)
	}

	list, err := inventory.NewReplenishmentUseCase(e.store).GenerateReplenishmentList(ctx, e.tc, "")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, critico.String(), list[0].VariantID)
	assert.Equal(t, 1, list[0].Priority)
	assert.True(t, list[0].SuggestedOrderQty.Equal(dec("29")))
	assert.True(t, list[0].EstimatedOrderCost.Equal(dec("58")))

	assert.Equal(t, leve.String(), list[1].VariantID)
	assert.True(t, list[1].TargetStock.Equal(dec("7.5")))
	assert.True(t, list[1].SuggestedOrderQty.Equal(dec("3.5")))
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
