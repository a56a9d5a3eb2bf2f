package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturador-afip/internal/application/billing"
	"github.com/tu-usuario/facturador-afip/internal/application/dto"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Generate godoc
// @Summary      Emitir el comprobante de una venta
// @Tags         invoices
// @Produce      json
// @Param        saleId  path  string  true  "ID de la venta"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/generate/{saleId} [post]
func (h *InvoiceHandler) Generate(c *fiber.Ctx) error {
	saleID := c.Params("saleId")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "saleId requerido"})
	}
	invoice, err := h.uc.GenerateInvoice(c.Context(), saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// List godoc
// @Summary      Listar comprobantes
// @Tags         invoices
// @Produce      json
// @Param        status  query  string  false  "PENDING|AUTHORIZED|REJECTED|ERROR"
// @Param        from    query  string  false  "fecha de emisión desde (2006-01-02)"
// @Param        to      query  string  false  "fecha de emisión hasta, inclusive"
// @Param        page    query  int     false  "página (desde 1)"
// @Param        limit   query  int     false  "tamaño de página (máx 100)"
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var req dto.InvoiceListRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.uc.List(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID obtiene un comprobante.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.uc.GetInvoice(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// GetBySale obtiene el comprobante emitido para una venta.
// GET /api/invoices/sale/:saleId
func (h *InvoiceHandler) GetBySale(c *fiber.Ctx) error {
	saleID := c.Params("saleId")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "saleId requerido"})
	}
	invoice, err := h.uc.GetBySale(saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// Retry godoc
// @Summary      Reintentar la autorización de un comprobante rechazado o con error
// @Tags         invoices
// @Produce      json
// @Param        id  path  string  true  "ID del comprobante"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/retry [post]
func (h *InvoiceHandler) Retry(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.uc.RetryAuthorization(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// TestConnection prueba autenticación y acceso a WSFE con la configuración activa.
// POST /api/invoices/afip/test-connection
func (h *InvoiceHandler) TestConnection(c *fiber.Ctx) error {
	out, err := h.uc.TestConnection(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ClearToken descarta el ticket WSAA del ambiente activo.
// POST /api/invoices/afip/clear-token
func (h *InvoiceHandler) ClearToken(c *fiber.Ctx) error {
	if err := h.uc.InvalidateAuthToken(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cleared": true})
}

// PhantomStatus expone el estado del cooldown por ticket fantasma.
// GET /api/invoices/afip/phantom-status
func (h *InvoiceHandler) PhantomStatus(c *fiber.Ctx) error {
	out, err := h.uc.PhantomStatus()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
