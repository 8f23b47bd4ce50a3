package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrUnauthenticatedContext = errors.New("contexto de tenant/usuario ausente o inválido")
	ErrUnknownLookupKey       = errors.New("clave de catálogo desconocida")
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrAlreadyReceived        = errors.New("la compra ya fue recibida")
	ErrLedgerConflict         = errors.New("conflicto concurrente sobre el inventario")
	ErrPartialReceiptFailure  = errors.New("recepción parcial: una o más líneas fallaron")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidTransition      = errors.New("transición de estado inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
)
