package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/inventory"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
	"github.com/megaventa/pos-api/pkg/logger"
)

// ReceiptInput entrada de mercancía a un almacén.
type ReceiptInput struct {
	WarehouseID   uuid.UUID
	VariantID     uuid.UUID
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	Note          string
}

// IssueInput salida de mercancía; se valora al costo promedio vigente.
type IssueInput struct {
	WarehouseID   uuid.UUID
	VariantID     uuid.UUID
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	Note          string
}

// Ledger es el único componente que modifica stock_actual y costo_promedio.
// Cada aplicación bloquea la fila de inventario, recalcula y agrega exactamente un movimiento.
type Ledger struct {
	txRunner      repository.TxRunner
	allowNegative bool
	log           *logger.Logger
	now           func() time.Time
}

// NewLedger construye el ledger. allowNegative permite salidas sin stock suficiente.
func NewLedger(txRunner repository.TxRunner, allowNegative bool, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{txRunner: txRunner, allowNegative: allowNegative, log: log, now: time.Now}
}

// Receive aplica una entrada en su propia transacción.
func (l *Ledger) Receive(ctx context.Context, tc tenant.Context, in ReceiptInput) (*entity.InventoryMovement, error) {
	var mov *entity.InventoryMovement
	err := l.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		var err error
		mov, err = l.ApplyReceipt(ctx, s, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ApplyReceipt aplica una entrada dentro de la transacción del llamador:
// bloquea (almacén, variante), recalcula el costo promedio ponderado, actualiza
// el registro (lo crea si no existe) y agrega un movimiento ENTRADA.
func (l *Ledger) ApplyReceipt(ctx context.Context, s repository.Scope, in ReceiptInput) (*entity.InventoryMovement, error) {
	if in.WarehouseID == uuid.Nil || in.VariantID == uuid.Nil {
		return nil, fmt.Errorf("%w: almacén y variante requeridos", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}

	tc := s.Tenant()
	now := l.now()

	rec, err := lockOrCreate(ctx, s, in.WarehouseID, in.VariantID, now)
	if err != nil {
		return nil, err
	}

	before := rec.StockOnHand
	after := before.Add(in.Quantity)
	rec.WeightedAverageCost = inventory.WeightedAverageCost(before, rec.WeightedAverageCost, in.Quantity, in.UnitCost)
	rec.StockOnHand = after
	rec.LastUnitCost = in.UnitCost
	rec.ModifiedBy = tc.ActorID
	rec.UpdatedAt = now
	if err := s.Inventory().Update(ctx, rec); err != nil {
		return nil, err
	}

	mov := &entity.InventoryMovement{
		ID:            uuid.New(),
		TenantID:      tc.TenantID,
		WarehouseID:   in.WarehouseID,
		VariantID:     in.VariantID,
		Type:          entity.MovementTypeEntrada,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Quantity:      in.Quantity,
		UnitCost:      in.UnitCost,
		StockBefore:   before,
		StockAfter:    after,
		Note:          in.Note,
		CreatedBy:     tc.ActorID,
		CreatedAt:     now,
	}
	if err := s.Movements().Create(ctx, mov); err != nil {
		return nil, err
	}
	l.log.Debug().
		Str("tenant_id", tc.TenantID.String()).
		Str("warehouse_id", in.WarehouseID.String()).
		Str("variant_id", in.VariantID.String()).
		Str("stock_after", after.String()).
		Str("avg_cost", rec.WeightedAverageCost.String()).
		Msg("entrada aplicada")
	return mov, nil
}

// ApplyIssue aplica una salida dentro de la transacción del llamador. El costo promedio no cambia.
func (l *Ledger) ApplyIssue(ctx context.Context, s repository.Scope, in IssueInput) (*entity.InventoryMovement, error) {
	if in.WarehouseID == uuid.Nil || in.VariantID == uuid.Nil {
		return nil, fmt.Errorf("%w: almacén y variante requeridos", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}

	tc := s.Tenant()
	now := l.now()

	var rec *entity.InventoryRecord
	var err error
	if l.allowNegative {
		rec, err = lockOrCreate(ctx, s, in.WarehouseID, in.VariantID, now)
	} else {
		rec, err = s.Inventory().GetForUpdate(ctx, in.WarehouseID, in.VariantID)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrInsufficientStock
	}
	if !l.allowNegative && rec.StockOnHand.LessThan(in.Quantity) {
		return nil, domain.ErrInsufficientStock
	}

	before := rec.StockOnHand
	after := before.Sub(in.Quantity)
	rec.StockOnHand = after
	rec.ModifiedBy = tc.ActorID
	rec.UpdatedAt = now
	if err := s.Inventory().Update(ctx, rec); err != nil {
		return nil, err
	}

	mov := &entity.InventoryMovement{
		ID:            uuid.New(),
		TenantID:      tc.TenantID,
		WarehouseID:   in.WarehouseID,
		VariantID:     in.VariantID,
		Type:          entity.MovementTypeSalida,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Quantity:      in.Quantity,
		UnitCost:      rec.WeightedAverageCost,
		StockBefore:   before,
		StockAfter:    after,
		Note:          in.Note,
		CreatedBy:     tc.ActorID,
		CreatedAt:     now,
	}
	if err := s.Movements().Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// SetThresholds actualiza stock mínimo y máximo (informativos, sin enforcement).
func (l *Ledger) SetThresholds(ctx context.Context, tc tenant.Context, warehouseID, variantID uuid.UUID, minimum, maximum decimal.Decimal) error {
	if minimum.IsNegative() || maximum.IsNegative() {
		return fmt.Errorf("%w: umbrales negativos", domain.ErrInvalidInput)
	}
	if minimum.IsPositive() && maximum.IsPositive() && minimum.GreaterThan(maximum) {
		return fmt.Errorf("%w: stock mínimo mayor que el máximo", domain.ErrInvalidInput)
	}
	return l.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		return s.Inventory().UpdateThresholds(ctx, warehouseID, variantID, minimum, maximum, s.Tenant().ActorID)
	})
}

// lockOrCreate bloquea la fila (SELECT FOR UPDATE, espera acotada por lock_timeout).
// Si no existe la inserta en cero con ON CONFLICT DO NOTHING y vuelve a bloquear: una
// transacción concurrente sobre el mismo par espera el commit de la otra y lee su stock.
func lockOrCreate(ctx context.Context, s repository.Scope, warehouseID, variantID uuid.UUID, now time.Time) (*entity.InventoryRecord, error) {
	rec, err := s.Inventory().GetForUpdate(ctx, warehouseID, variantID)
	if err != nil || rec != nil {
		return rec, err
	}
	if _, err := s.Inventory().Create(ctx, newRecord(s.Tenant(), warehouseID, variantID, now)); err != nil {
		return nil, err
	}
	rec, err = s.Inventory().GetForUpdate(ctx, warehouseID, variantID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("inventario %s/%s no visible tras crearlo: %w", warehouseID, variantID, domain.ErrLedgerConflict)
	}
	return rec, nil
}

func newRecord(tc tenant.Context, warehouseID, variantID uuid.UUID, now time.Time) *entity.InventoryRecord {
	return &entity.InventoryRecord{
		WarehouseID:         warehouseID,
		VariantID:           variantID,
		TenantID:            tc.TenantID,
		StockOnHand:         decimal.Zero,
		StockMinimum:        decimal.Zero,
		StockMaximum:        decimal.Zero,
		WeightedAverageCost: decimal.Zero,
		LastUnitCost:        decimal.Zero,
		CreatedBy:           tc.ActorID,
		ModifiedBy:          tc.ActorID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
