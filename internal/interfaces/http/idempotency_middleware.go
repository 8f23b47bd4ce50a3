package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/pkg/logger"
)

// HeaderIdempotencyKey header opcional para reintentos seguros.
const HeaderIdempotencyKey = "Idempotency-Key"

// KeyStore es el contrato mínimo del almacén de claves; lo implementa *redis.IdempotencyStore.
type KeyStore interface {
	Acquire(ctx context.Context, tenantID uuid.UUID, key string) (bool, error)
	Release(ctx context.Context, tenantID uuid.UUID, key string) error
}

// Idempotent rechaza con 409 una petición cuya Idempotency-Key ya se usó en la misma ruta.
// Debe usarse DESPUÉS de TenantMiddleware. Sin header la petición pasa sin registrar nada.
//
// Comportamiento:
//   - 409 DUPLICATE_REQUEST → la clave ya fue tomada.
//   - Respuesta final >= 400 → la clave se libera para permitir el reintento.
//   - Falla del almacén → se registra y la petición continúa; el bloqueo de la compra
//     sigue impidiendo la doble recepción.
func Idempotent(store KeyStore, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderIdempotencyKey)
		if raw == "" {
			return c.Next()
		}
		tc := GetTenant(c)
		if !tc.Valid() {
			return unauthenticated(c, "tenant no resuelto")
		}
		key := c.Method() + ":" + c.Path() + ":" + raw

		acquired, err := store.Acquire(c.UserContext(), tc.TenantID, key)
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", tc.TenantID.String()).Msg("almacén de idempotencia no disponible")
			return c.Next()
		}
		if !acquired {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "DUPLICATE_REQUEST",
				Message: "la petición con esta Idempotency-Key ya fue procesada",
			})
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			if rerr := store.Release(context.Background(), tc.TenantID, key); rerr != nil {
				log.Warn().Err(rerr).Str("key", key).Msg("no se pudo liberar la clave de idempotencia")
			}
		}
		return err
	}
}
