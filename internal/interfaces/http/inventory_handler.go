package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP de existencias y movimientos (protegido).
type InventoryHandler struct {
	uc            *inventory.UseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.UseCase, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, replenishment: replenishment, log: log}
}

// List godoc
// @Summary      Listar existencias
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Almacén (UUID)"
// @Param        variant_id    query  string  false  "Variante (UUID)"
// @Param        low_stock     query  bool    false  "Solo stock_actual <= stock_minimo"
// @Param        limit         query  int     false  "Límite"
// @Param        offset        query  int     false  "Offset"
// @Success      200  {object}  dto.InventoryListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var in dto.InventoryListRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	in.DefaultPage()
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.List(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Existencia de una variante en un almacén
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse  path  string  true  "Almacén (UUID)"
// @Param        variant    path  string  true  "Variante (UUID)"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{warehouse}/{variant} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	warehouseID, err := paramID(c.Params("warehouse"), "warehouse")
	if err != nil {
		return writeError(c, h.log, err)
	}
	variantID, err := paramID(c.Params("variant"), "variant")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetTenant(c), warehouseID, variantID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar existencia inicial
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInventoryRequest  true  "almacén, variante, stock y costo inicial"
// @Success      201  {object}  dto.InventoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.CreateInitial(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateThresholds godoc
// @Summary      Actualizar stock mínimo y máximo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Param        warehouse  path  string  true  "Almacén (UUID)"
// @Param        variant    path  string  true  "Variante (UUID)"
// @Param        body  body  dto.UpdateThresholdsRequest  true  "stock_minimum, stock_maximum"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{warehouse}/{variant}/thresholds [put]
func (h *InventoryHandler) UpdateThresholds(c *fiber.Ctx) error {
	warehouseID, err := paramID(c.Params("warehouse"), "warehouse")
	if err != nil {
		return writeError(c, h.log, err)
	}
	variantID, err := paramID(c.Params("variant"), "variant")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.UpdateThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.UpdateThresholds(c.UserContext(), GetTenant(c), warehouseID, variantID, in); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Adjust godoc
// @Summary      Ajuste manual de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.AdjustmentRequest  true  "ENTRADA o SALIDA con cantidad"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Adjust(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Kardex de un almacén
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse   path   string  true   "Almacén (UUID)"
// @Param        variant_id  query  string  false  "Variante (UUID)"
// @Param        type        query  string  false  "ENTRADA | SALIDA"
// @Param        from        query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to          query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{warehouse} [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	warehouseID, err := paramID(c.Params("warehouse"), "warehouse")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.MovementListRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	in.DefaultPage()
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.ListMovements(c.UserContext(), GetTenant(c), warehouseID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Variantes en o por debajo del stock mínimo con la cantidad sugerida
//
//	de pedido hasta el stock máximo, ordenadas por déficit relativo.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por almacén (UUID). Vacío = todos."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), GetTenant(c), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
