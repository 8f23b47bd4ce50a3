package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/megaventa/pos-api/internal/application/dto"
	"github.com/megaventa/pos-api/internal/application/purchase"
	"github.com/megaventa/pos-api/pkg/logger"
)

// PurchaseHandler maneja las peticiones HTTP de compras (protegido).
type PurchaseHandler struct {
	uc  *purchase.UseCase
	log *logger.Logger
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase, log *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear compra
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseRequest  true  "proveedor, almacén, número y líneas"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar compras
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        supplier_id   query  string  false  "Proveedor (UUID)"
// @Param        warehouse_id  query  string  false  "Almacén (UUID)"
// @Param        status        query  string  false  "PENDIENTE | RECIBIDA | CANCELADA"
// @Param        from          query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to            query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit         query  int     false  "Límite"
// @Param        offset        query  int     false  "Offset"
// @Success      200  {object}  dto.PurchaseListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	var in dto.PurchaseListRequest
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

// GetByID godoc
// @Summary      Obtener compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID de la compra"
// @Param        lines  query  bool    false  "Incluir detalle"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c.Params("id"), "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetTenant(c), id, c.QueryBool("lines", false))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir compra
// @Description  Aplica al inventario las cantidades recibidas. Cada línea es independiente:
//
//	si alguna falla se responde 207 con el reporte y la compra queda RECIBIDA.
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string  true   "ID de la compra"
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.ReceivePurchaseRequest  true  "variant_id y quantity por línea"
// @Success      200  {object}  dto.ReceiptResponse
// @Success      207  {object}  dto.ReceiptResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/receive [put]
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	id, err := paramID(c.Params("id"), "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.ReceivePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, h.log, err)
	}
	lines := make([]purchase.LineReceipt, 0, len(in.Lines))
	for _, l := range in.Lines {
		variantID, err := paramID(l.VariantID, "variant_id")
		if err != nil {
			return writeError(c, h.log, err)
		}
		lines = append(lines, purchase.LineReceipt{VariantID: variantID, Quantity: l.Quantity})
	}

	summary, err := h.uc.Receive(c.UserContext(), GetTenant(c), id, lines)
	var partial *purchase.PartialReceiptError
	if errors.As(err, &partial) {
		return c.Status(fiber.StatusMultiStatus).JSON(purchase.ToReceiptResponse(partial.Summary))
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(purchase.ToReceiptResponse(summary))
}

// Cancel godoc
// @Summary      Cancelar compra pendiente
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/cancel [put]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c.Params("id"), "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Cancel(c.UserContext(), GetTenant(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar compra (borrado lógico)
// @Tags         purchases
// @Security     Bearer
// @Param        id  path  string  true  "ID de la compra"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c.Params("id"), "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetTenant(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
