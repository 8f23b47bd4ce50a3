package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/domain/tenant"
)

// replenishmentPageSize tope de registros en stock bajo que se evalúan por llamada.
const replenishmentPageSize = 500

// ReplenishmentUseCase genera la lista de reposición a partir de los registros en stock bajo.
type ReplenishmentUseCase struct {
	txRunner repository.TxRunner
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(txRunner repository.TxRunner) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{txRunner: txRunner}
}

// GenerateReplenishmentList devuelve las variantes con stock_actual <= stock_minimo y la cantidad
// sugerida de pedido, priorizadas por déficit relativo. warehouseID vacío considera todos los almacenes.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	tc tenant.Context,
	warehouseID string,
) ([]dto.ReplenishmentSuggestionDTO, error) {
	filter := repository.InventoryFilter{LowStock: true, Managed: true, Limit: replenishmentPageSize}
	var err error
	if filter.WarehouseID, err = optionalID(warehouseID); err != nil {
		return nil, err
	}

	// 1. Registros con mínimo configurado y stock en o bajo el mínimo
	var records []*entity.InventoryRecord
	err = uc.txRunner.Run(ctx, tc, func(ctx context.Context, s repository.Scope) error {
		records, _, err = s.Inventory().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 2. Cantidad sugerida hasta el máximo (o mínimo * 1.5 sin máximo configurado)
	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(records))
	for _, r := range records {
		target := r.StockMaximum
		if !target.IsPositive() {
			target = r.StockMinimum.Mul(factor)
		}
		qty := target.Sub(r.StockOnHand)
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			WarehouseID:        r.WarehouseID.String(),
			VariantID:          r.VariantID.String(),
			CurrentStock:       r.StockOnHand,
			StockMinimum:       r.StockMinimum,
			TargetStock:        target,
			SuggestedOrderQty:  qty,
			UnitCost:           r.WeightedAverageCost,
			EstimatedOrderCost: qty.Mul(r.WeightedAverageCost).Round(2),
		})
	}

	// 3. Ordenar por déficit relativo al mínimo, luego déficit absoluto
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.StockMinimum.Sub(a.CurrentStock).Div(a.StockMinimum)
		rb := b.StockMinimum.Sub(b.CurrentStock).Div(b.StockMinimum)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.SuggestedOrderQty.GreaterThan(b.SuggestedOrderQty)
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
