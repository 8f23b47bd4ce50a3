// Package purchase casos de uso de compras: alta, consulta, cancelación, borrado lógico
// y el flujo de recepción que alimenta el ledger de inventario.
package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
	"github.com/megaventa/pos-api/pkg/logger"
)

// LookupResolver resuelve claves de cat_estado (implementado por lookup.Cache).
type LookupResolver interface {
	Resolve(ctx context.Context, key string) (uuid.UUID, error)
}

// UseCase casos de uso de compras.
type UseCase struct {
	txRunner repository.TxRunner
	ledger   *inventory.Ledger
	lookups  LookupResolver
	taxRate  decimal.Decimal
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. taxRate es la tasa de impuesto aplicada al subtotal.
func NewUseCase(txRunner repository.TxRunner, ledger *inventory.Ledger, lookups LookupResolver, taxRate decimal.Decimal, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner: txRunner,
		ledger:   ledger,
		lookups:  lookups,
		taxRate:  taxRate,
		log:      log,
		now:      time.Now,
	}
}

// Create registra una compra PENDIENTE con sus líneas y totales.
func (uc *UseCase) Create(ctx context.Context, tc tenant.Context, in dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	supplierID, err := requiredID(in.SupplierID)
	if err != nil {
		return nil, err
	}
	warehouseID, err := requiredID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la compra no tiene líneas", domain.ErrInvalidInput)
	}
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	p := &entity.Purchase{
		ID:           uuid.New(),
		TenantID:     tc.TenantID,
		SupplierID:   supplierID,
		WarehouseID:  warehouseID,
		Number:       in.Number,
		Notes:        in.Notes,
		Status:       entity.PurchaseStatusPendiente,
		EstadoID:     active,
		CreatedBy:    tc.ActorID,
		ModifiedBy:   tc.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
		DeliveryDate: in.DeliveryDate,
		PurchaseDate: now,
	}
	if in.PurchaseDate != nil {
		p.PurchaseDate = *in.PurchaseDate
	}

	// una línea por variante: la recepción localiza la línea por variante
	seen := make(map[uuid.UUID]struct{}, len(in.Lines))
	subtotal := decimal.Zero
	for _, l := range in.Lines {
		variantID, err := requiredID(l.VariantID)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[variantID]; dup {
			return nil, fmt.Errorf("%w: variante %s repetida en la compra", domain.ErrInvalidInput, variantID)
		}
		seen[variantID] = struct{}{}
		if !l.Quantity.IsPositive() || l.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: cantidad o costo inválido en variante %s", domain.ErrInvalidInput, l.VariantID)
		}
		line := entity.PurchaseLine{
			ID:               uuid.New(),
			PurchaseID:       p.ID,
			VariantID:        variantID,
			QuantityOrdered:  l.Quantity,
			QuantityReceived: decimal.Zero,
			UnitCost:         l.UnitCost,
			Subtotal:         l.Quantity.Mul(l.UnitCost).Round(2),
			CreatedAt:        now,
		}
		subtotal = subtotal.Add(line.Subtotal)
		p.Lines = append(p.Lines, line)
	}
	p.Subtotal = subtotal
	p.Taxes = subtotal.Mul(uc.taxRate).Round(2)
	p.Total = p.Subtotal.Add(p.Taxes)

	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		wh, err := s.Warehouses().GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("almacén: %w", domain.ErrNotFound)
		}
		return s.Purchases().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseResponse(p, true), nil
}

// Get devuelve una compra activa; withLines incluye el detalle.
func (uc *UseCase) Get(ctx context.Context, tc tenant.Context, id uuid.UUID, withLines bool) (*dto.PurchaseResponse, error) {
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return nil, err
	}
	var p *entity.Purchase
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		p, err = s.Purchases().GetByID(ctx, id, active)
		if err != nil || p == nil || !withLines {
			return err
		}
		p.Lines, err = s.Purchases().ListLines(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return toPurchaseResponse(p, withLines), nil
}

// List lista compras activas del tenant.
func (uc *UseCase) List(ctx context.Context, tc tenant.Context, in dto.PurchaseListRequest) (*dto.PurchaseListResponse, error) {
	in.DefaultPage()
	if in.Status != "" && !entity.IsValidPurchaseStatus(in.Status) {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Status)
	}
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return nil, err
	}
	filter := repository.PurchaseFilter{EstadoID: active, Status: in.Status, Limit: in.Limit, Offset: in.Offset}
	if filter.SupplierID, err = optionalID(in.SupplierID); err != nil {
		return nil, err
	}
	if filter.WarehouseID, err = optionalID(in.WarehouseID); err != nil {
		return nil, err
	}
	if filter.From, err = dto.ParseDateFilter(in.From); err != nil {
		return nil, fmt.Errorf("%w: fecha desde", domain.ErrInvalidInput)
	}
	if filter.To, err = dto.ParseDateFilter(in.To); err != nil {
		return nil, fmt.Errorf("%w: fecha hasta", domain.ErrInvalidInput)
	}

	var (
		list  []*entity.Purchase
		total int
	)
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		list, total, err = s.Purchases().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toPurchaseResponse(p, false))
	}
	return &dto.PurchaseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Cancel PENDIENTE -> CANCELADA. Cualquier otro estado devuelve ErrInvalidTransition.
func (uc *UseCase) Cancel(ctx context.Context, tc tenant.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return nil, err
	}
	var p *entity.Purchase
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		p, err = s.Purchases().GetForUpdate(ctx, id, active)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if !p.CanCancel() {
			return fmt.Errorf("%w: compra en estado %s", domain.ErrInvalidTransition, p.Status)
		}
		if err := s.Purchases().UpdateStatus(ctx, id, entity.PurchaseStatusCancelada, tc.ActorID); err != nil {
			return err
		}
		p.Status = entity.PurchaseStatusCancelada
		p.ModifiedBy = tc.ActorID
		p.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseResponse(p, false), nil
}

// Delete borrado lógico (estado "del"). Una compra RECIBIDA no se borra: su inventario ya existe.
func (uc *UseCase) Delete(ctx context.Context, tc tenant.Context, id uuid.UUID) error {
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return err
	}
	deleted, err := uc.lookups.Resolve(ctx, entity.EstadoBorrado)
	if err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		p, err := s.Purchases().GetForUpdate(ctx, id, active)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Status == entity.PurchaseStatusRecibida {
			return fmt.Errorf("%w: compra recibida", domain.ErrInvalidTransition)
		}
		return s.Purchases().UpdateEstado(ctx, id, deleted, tc.ActorID)
	})
}

// Receive aplica al inventario las cantidades recibidas de una compra PENDIENTE.
// Cada línea corre en su propio savepoint: una falla se reporta y las demás continúan.
// La compra queda RECIBIDA aunque haya fallas; en ese caso se devuelve el resumen junto
// con un *PartialReceiptError. Cualquier error fuera de las líneas deshace toda la recepción.
func (uc *UseCase) Receive(ctx context.Context, tc tenant.Context, purchaseID uuid.UUID, lines []LineReceipt) (*ReceiptSummary, error) {
	active, err := uc.lookups.Resolve(ctx, entity.EstadoActivo)
	if err != nil {
		return nil, err
	}

	var summary *ReceiptSummary
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		summary = &ReceiptSummary{PurchaseID: purchaseID}

		// Bloquea la compra: recepciones concurrentes de la misma compra se serializan aquí
		p, err := s.Purchases().GetForUpdate(ctx, purchaseID, active)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if !p.CanReceive() {
			if p.Status == entity.PurchaseStatusRecibida {
				return domain.ErrAlreadyReceived
			}
			return fmt.Errorf("%w: compra en estado %s", domain.ErrInvalidTransition, p.Status)
		}

		ref := p.ID
		note := "Recepción de compra " + p.Number
		for _, lr := range lines {
			if !lr.Quantity.IsPositive() {
				summary.Skipped++
				continue
			}
			line, err := s.Purchases().FindLineByVariant(ctx, p.ID, lr.VariantID)
			if err != nil {
				return err
			}
			if line == nil {
				summary.Failures = append(summary.Failures, LineFailure{
					VariantID: lr.VariantID,
					Code:      FailureNotFound,
					Err:       fmt.Errorf("variante %s no pertenece a la compra: %w", lr.VariantID, domain.ErrNotFound),
				})
				continue
			}
			if pending := line.QuantityOrdered.Sub(line.QuantityReceived); lr.Quantity.GreaterThan(pending) {
				uc.log.Warn().
					Str("purchase_id", p.ID.String()).
					Str("variant_id", lr.VariantID.String()).
					Str("ordered", line.QuantityOrdered.String()).
					Str("received", lr.Quantity.String()).
					Msg("recepción mayor a lo pendiente")
			}

			var mov *entity.InventoryMovement
			lineErr := s.Savepoint(ctx, func(ctx context.Context, sp repository.Scope) error {
				if err := sp.Purchases().AddReceivedQuantity(ctx, line.ID, lr.Quantity); err != nil {
					return err
				}
				m, err := uc.ledger.ApplyReceipt(ctx, sp, inventory.ReceiptInput{
					WarehouseID:   p.WarehouseID,
					VariantID:     lr.VariantID,
					Quantity:      lr.Quantity,
					UnitCost:      line.UnitCost,
					ReferenceType: entity.ReferenceCompra,
					ReferenceID:   &ref,
					Note:          note,
				})
				mov = m
				return err
			})
			if lineErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				uc.log.Warn().Err(lineErr).
					Str("tenant_id", tc.TenantID.String()).
					Str("purchase_id", p.ID.String()).
					Str("variant_id", lr.VariantID.String()).
					Msg("línea de compra no recibida")
				summary.Failures = append(summary.Failures, LineFailure{
					VariantID: lr.VariantID,
					Code:      failureCode(lineErr),
					Err:       lineErr,
				})
				continue
			}
			summary.Received++
			summary.Movements = append(summary.Movements, mov)
		}

		// TODO: dejar PENDIENTE cuando no se aplicó ninguna línea; hoy se marca RECIBIDA siempre.
		if err := s.Purchases().UpdateStatus(ctx, p.ID, entity.PurchaseStatusRecibida, tc.ActorID); err != nil {
			return err
		}
		summary.Status = entity.PurchaseStatusRecibida
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("actor_id", tc.ActorID.String()).
		Str("purchase_id", purchaseID.String()).
		Int("received", summary.Received).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed()).
		Msg("compra recibida")

	if summary.Failed() > 0 {
		return summary, &PartialReceiptError{Summary: summary}
	}
	return summary, nil
}

// ToReceiptResponse convierte el resumen de recepción a DTO.
func ToReceiptResponse(s *ReceiptSummary) *dto.ReceiptResponse {
	out := &dto.ReceiptResponse{
		PurchaseID: s.PurchaseID.String(),
		Status:     s.Status,
		Received:   s.Received,
		Skipped:    s.Skipped,
		Failed:     s.Failed(),
		Movements:  make([]dto.MovementResponse, 0, len(s.Movements)),
	}
	for _, m := range s.Movements {
		out.Movements = append(out.Movements, *inventory.ToMovementResponse(m))
	}
	for _, f := range s.Failures {
		out.Failures = append(out.Failures, dto.LineFailureResponse{
			VariantID: f.VariantID.String(),
			Code:      f.Code,
			Message:   f.Err.Error(),
		})
	}
	return out
}

func toPurchaseResponse(p *entity.Purchase, withLines bool) *dto.PurchaseResponse {
	out := &dto.PurchaseResponse{
		ID:           p.ID.String(),
		SupplierID:   p.SupplierID.String(),
		WarehouseID:  p.WarehouseID.String(),
		Number:       p.Number,
		PurchaseDate: p.PurchaseDate,
		DeliveryDate: p.DeliveryDate,
		Subtotal:     p.Subtotal,
		Taxes:        p.Taxes,
		Total:        p.Total,
		Notes:        p.Notes,
		Status:       p.Status,
		CreatedBy:    p.CreatedBy.String(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if withLines {
		out.Lines = make([]dto.PurchaseLineResponse, 0, len(p.Lines))
		for _, l := range p.Lines {
			out.Lines = append(out.Lines, dto.PurchaseLineResponse{
				ID:               l.ID.String(),
				VariantID:        l.VariantID.String(),
				QuantityOrdered:  l.QuantityOrdered,
				QuantityReceived: l.QuantityReceived,
				UnitCost:         l.UnitCost,
				Subtotal:         l.Subtotal,
			})
		}
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
