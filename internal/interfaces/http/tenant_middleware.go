package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/domain/tenant"
	"github.com/megaventa/pos-api/pkg/jwt"
)

// Headers de identidad y la clave Locals donde queda el tenant resuelto.
const (
	HeaderTenantID = "Tenant-ID"
	HeaderUserID   = "User-ID"
	LocalTenant    = "tenant"
)

// TenantMiddleware resuelve empresa y usuario de la petición. Primero los headers
// Tenant-ID / User-ID; si no vienen, un Bearer JWT con claims tenant_id y user_id.
// Sin identidad válida responde 401 antes de llegar al handler.
func TenantMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, userID := c.Get(HeaderTenantID), c.Get(HeaderUserID)
		if tenantID == "" && userID == "" {
			var ok bool
			tenantID, userID, ok = fromBearer(c.Get(fiber.HeaderAuthorization), jwtSecret)
			if !ok {
				return unauthenticated(c, "identidad de tenant requerida (headers o Bearer token)")
			}
		}
		tc, err := tenant.Resolve(tenantID, userID)
		if err != nil {
			return unauthenticated(c, "tenant o usuario inválido")
		}
		c.Locals(LocalTenant, tc)
		c.SetUserContext(tenant.NewContext(c.UserContext(), tc))
		return c.Next()
	}
}

func fromBearer(header, secret string) (tenantID, userID string, ok bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "", false
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" || secret == "" {
		return "", "", false
	}
	tenantID, userID, err := jwt.Parse(secret, tokenString)
	if err != nil {
		return "", "", false
	}
	return tenantID, userID, true
}

func unauthenticated(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHENTICATED", Message: msg})
}

// GetTenant devuelve el tenant resuelto por TenantMiddleware (zero value si no pasó por él).
func GetTenant(c *fiber.Ctx) tenant.Context {
	tc, _ := c.Locals(LocalTenant).(tenant.Context)
	return tc
}
