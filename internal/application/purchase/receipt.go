package purchase

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/entity"
)

// Códigos de falla por línea en el reporte de recepción.
const (
	FailureNotFound          = "NOT_FOUND"
	FailureLedgerConflict    = "LEDGER_CONFLICT"
	FailureInvalidInput      = "VALIDATION"
	FailureInsufficientStock = "INSUFFICIENT_STOCK"
	FailureInternal          = "INTERNAL"
)

// LineReceipt cantidad recibida de una variante de la compra.
type LineReceipt struct {
	VariantID uuid.UUID
	Quantity  decimal.Decimal
}

// LineFailure línea que no se aplicó; las demás continúan.
type LineFailure struct {
	VariantID uuid.UUID
	Code      string
	Err       error
}

// ReceiptSummary resultado de una recepción.
type ReceiptSummary struct {
	PurchaseID uuid.UUID
	Status     string
	Received   int
	Skipped    int
	Movements  []*entity.InventoryMovement
	Failures   []LineFailure
}

// Failed número de líneas con falla.
func (s *ReceiptSummary) Failed() int { return len(s.Failures) }

// PartialReceiptError acompaña al resumen cuando al menos una línea falló.
type PartialReceiptError struct {
	Summary *ReceiptSummary
}

func (e *PartialReceiptError) Error() string {
	return fmt.Sprintf("%s: %d de %d líneas", domain.ErrPartialReceiptFailure, e.Summary.Failed(),
		e.Summary.Failed()+e.Summary.Received)
}

// Unwrap permite errors.Is(err, domain.ErrPartialReceiptFailure).
func (e *PartialReceiptError) Unwrap() error { return domain.ErrPartialReceiptFailure }

// failureCode clasifica el error de una línea para el reporte.
func failureCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return FailureNotFound
	case errors.Is(err, domain.ErrLedgerConflict):
		return FailureLedgerConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return FailureInvalidInput
	case errors.Is(err, domain.ErrInsufficientStock):
		return FailureInsufficientStock
	default:
		return FailureInternal
	}
}
