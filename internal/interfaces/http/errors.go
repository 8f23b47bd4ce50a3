package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Orden relevante: el primer sentinel que coincide gana.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticatedContext, fiber.StatusUnauthorized, "UNAUTHENTICATED", "contexto de tenant inválido"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrAlreadyReceived, fiber.StatusConflict, "ALREADY_RECEIVED", "la compra ya fue recibida"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION", "transición de estado no permitida"},
	{domain.ErrLedgerConflict, fiber.StatusConflict, "LEDGER_CONFLICT", "inventario ocupado por otra operación, reintente"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "el recurso ya existe"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "conflicto con el estado actual"},
}

// writeError traduce errores de dominio a dto.ErrorResponse. Los no mapeados (incluida
// una clave de catálogo desconocida) responden 500 con mensaje genérico y se registran.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if m.status == fiber.StatusBadRequest {
				msg = err.Error()
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	log.Error().Err(err).
		Bool("lookup_key", errors.Is(err, domain.ErrUnknownLookupKey)).
		Str("path", c.Path()).
		Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
