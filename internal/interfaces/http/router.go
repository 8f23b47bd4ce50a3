package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/application/purchase"
	"github.com/megaventa/pos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InventoryUC     *inventory.UseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	PurchaseUC      *purchase.UseCase
	Idempotency     KeyStore // nil deshabilita Idempotency-Key
	JWTSecret       string
	Log             *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Todas las rutas requieren tenant y usuario resueltos
	protected := api.Group("/", TenantMiddleware(deps.JWTSecret))

	idempotent := func(c *fiber.Ctx) error { return c.Next() }
	if deps.Idempotency != nil {
		idempotent = Idempotent(deps.Idempotency, deps.Log)
	}

	// Inventory (las rutas fijas antes de /:warehouse/:variant)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC, deps.ReplenishmentUC, deps.Log)
	invGroup.Get("/", inventoryHandler.List)
	invGroup.Post("/", inventoryHandler.Create)
	invGroup.Get("/replenishment", inventoryHandler.GetReplenishmentList)
	invGroup.Post("/adjustments", idempotent, inventoryHandler.Adjust)
	invGroup.Get("/movements/:warehouse", inventoryHandler.ListMovements)
	invGroup.Get("/:warehouse/:variant", inventoryHandler.Get)
	invGroup.Put("/:warehouse/:variant/thresholds", inventoryHandler.UpdateThresholds)

	// Purchases
	purchases := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC, deps.Log)
	purchases.Get("/", purchaseHandler.List)
	purchases.Post("/", purchaseHandler.Create)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Put("/:id/receive", idempotent, purchaseHandler.Receive)
	purchases.Put("/:id/cancel", purchaseHandler.Cancel)
	purchases.Delete("/:id", purchaseHandler.Delete)
}
