package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
	"github.com/megaventa/pos-api/pkg/logger"
)

// UseCase consultas de inventario y operaciones manuales (stock inicial, ajustes, umbrales).
// Toda mutación de stock pasa por el Ledger.
type UseCase struct {
	txRunner repository.TxRunner
	ledger   *Ledger
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner repository.TxRunner, ledger *Ledger, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{txRunner: txRunner, ledger: ledger, log: log}
}

// List lista existencias del tenant con filtros y total.
func (uc *UseCase) List(ctx context.Context, tc tenant.Context, in dto.InventoryListRequest) (*dto.InventoryListResponse, error) {
	in.DefaultPage()
	filter := repository.InventoryFilter{LowStock: in.LowStock, Limit: in.Limit, Offset: in.Offset}
	var err error
	if filter.WarehouseID, err = optionalID(in.WarehouseID); err != nil {
		return nil, err
	}
	if filter.VariantID, err = optionalID(in.VariantID); err != nil {
		return nil, err
	}

	var (
		list  []*entity.InventoryRecord
		total int
	)
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		list, total, err = s.Inventory().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.InventoryResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *ToInventoryResponse(r))
	}
	return &dto.InventoryListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Get devuelve la existencia de una variante en un almacén.
func (uc *UseCase) Get(ctx context.Context, tc tenant.Context, warehouseID, variantID uuid.UUID) (*dto.InventoryResponse, error) {
	var rec *entity.InventoryRecord
	err := uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		var err error
		rec, err = s.Inventory().Get(ctx, warehouseID, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return ToInventoryResponse(rec), nil
}

// CreateInitial crea el registro de una variante en un almacén. El stock inicial entra
// por el ledger como movimiento ENTRADA con referencia INICIAL.
func (uc *UseCase) CreateInitial(ctx context.Context, tc tenant.Context, in dto.CreateInventoryRequest) (*dto.InventoryResponse, error) {
	warehouseID, err := requiredID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	variantID, err := requiredID(in.VariantID)
	if err != nil {
		return nil, err
	}
	if in.InitialStock.IsNegative() || in.UnitCost.IsNegative() || in.StockMinimum.IsNegative() || in.StockMaximum.IsNegative() {
		return nil, fmt.Errorf("%w: valores negativos", domain.ErrInvalidInput)
	}

	var rec *entity.InventoryRecord
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		wh, err := s.Warehouses().GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("almacén: %w", domain.ErrNotFound)
		}
		rec = newRecord(s.Tenant(), warehouseID, variantID, uc.ledger.now())
		rec.StockMinimum = in.StockMinimum
		rec.StockMaximum = in.StockMaximum
		// ON CONFLICT DO NOTHING: una alta concurrente del mismo par espera y recibe ErrDuplicate
		created, err := s.Inventory().Create(ctx, rec)
		if err != nil {
			return err
		}
		if !created {
			return domain.ErrDuplicate
		}
		if in.InitialStock.IsPositive() {
			if _, err := uc.ledger.ApplyReceipt(ctx, s, ReceiptInput{
				WarehouseID:   warehouseID,
				VariantID:     variantID,
				Quantity:      in.InitialStock,
				UnitCost:      in.UnitCost,
				ReferenceType: entity.ReferenceInicial,
				Note:          "Stock inicial",
			}); err != nil {
				return err
			}
		}
		rec, err = s.Inventory().Get(ctx, warehouseID, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToInventoryResponse(rec), nil
}

// UpdateThresholds actualiza stock mínimo y máximo.
func (uc *UseCase) UpdateThresholds(ctx context.Context, tc tenant.Context, warehouseID, variantID uuid.UUID, in dto.UpdateThresholdsRequest) error {
	return uc.ledger.SetThresholds(ctx, tc, warehouseID, variantID, in.StockMinimum, in.StockMaximum)
}

// Adjust registra un ajuste manual (ENTRADA o SALIDA) con referencia AJUSTE.
func (uc *UseCase) Adjust(ctx context.Context, tc tenant.Context, in dto.AdjustmentRequest) (*dto.MovementResponse, error) {
	warehouseID, err := requiredID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	variantID, err := requiredID(in.VariantID)
	if err != nil {
		return nil, err
	}
	if !entity.IsValidMovementType(in.Type) {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}

	var mov *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		if in.Type == entity.MovementTypeSalida {
			mov, err = uc.ledger.ApplyIssue(ctx, s, IssueInput{
				WarehouseID:   warehouseID,
				VariantID:     variantID,
				Quantity:      in.Quantity,
				ReferenceType: entity.ReferenceAjuste,
				Note:          in.Note,
			})
			return err
		}
		cost := decimal.Zero
		if in.UnitCost != nil {
			cost = *in.UnitCost
		} else {
			// Sin costo explícito se valora al promedio vigente
			rec, err := s.Inventory().Get(ctx, warehouseID, variantID)
			if err != nil {
				return err
			}
			if rec != nil {
				cost = rec.WeightedAverageCost
			}
		}
		mov, err = uc.ledger.ApplyReceipt(ctx, s, ReceiptInput{
			WarehouseID:   warehouseID,
			VariantID:     variantID,
			Quantity:      in.Quantity,
			UnitCost:      cost,
			ReferenceType: entity.ReferenceAjuste,
			Note:          in.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("actor_id", tc.ActorID.String()).
		Str("type", mov.Type).
		Str("quantity", mov.Quantity.String()).
		Msg("ajuste de inventario registrado")
	return ToMovementResponse(mov), nil
}

// ListMovements kardex de un almacén, del más reciente al más antiguo.
func (uc *UseCase) ListMovements(ctx context.Context, tc tenant.Context, warehouseID uuid.UUID, in dto.MovementListRequest) (*dto.MovementListResponse, error) {
	if warehouseID == uuid.Nil {
		return nil, fmt.Errorf("%w: almacén requerido", domain.ErrInvalidInput)
	}
	in.DefaultPage()
	filter := repository.MovementFilter{WarehouseID: warehouseID, Type: in.Type, Limit: in.Limit, Offset: in.Offset}
	var err error
	if filter.VariantID, err = optionalID(in.VariantID); err != nil {
		return nil, err
	}
	if filter.From, err = dto.ParseDateFilter(in.From); err != nil {
		return nil, fmt.Errorf("%w: fecha desde", domain.ErrInvalidInput)
	}
	if filter.To, err = dto.ParseDateFilter(in.To); err != nil {
		return nil, fmt.Errorf("%w: fecha hasta", domain.ErrInvalidInput)
	}

	var (
		list  []*entity.InventoryMovement
		total int
	)
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		list, total, err = s.Movements().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// ToInventoryResponse convierte la entidad a DTO.
func ToInventoryResponse(r *entity.InventoryRecord) *dto.InventoryResponse {
	return &dto.InventoryResponse{
		WarehouseID:         r.WarehouseID.String(),
		VariantID:           r.VariantID.String(),
		StockOnHand:         r.StockOnHand,
		StockMinimum:        r.StockMinimum,
		StockMaximum:        r.StockMaximum,
		WeightedAverageCost: r.WeightedAverageCost,
		LastUnitCost:        r.LastUnitCost,
		LowStock:            r.IsLowStock(),
		UpdatedAt:           r.UpdatedAt,
	}
}

// ToMovementResponse convierte la entidad a DTO.
func ToMovementResponse(m *entity.InventoryMovement) *dto.MovementResponse {
	out := &dto.MovementResponse{
		ID:            m.ID.String(),
		WarehouseID:   m.WarehouseID.String(),
		VariantID:     m.VariantID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		ReferenceType: m.ReferenceType,
		Note:          m.Note,
		CreatedBy:     m.CreatedBy.String(),
		CreatedAt:     m.CreatedAt,
	}
	if m.ReferenceID != nil {
		out.ReferenceID = m.ReferenceID.String()
	}
	return out
}

func requiredID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: identificador %q", domain.ErrInvalidInput, s)
	}
	return id, nil
}

func optionalID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := requiredID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
