package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturador-afip/internal/application/billing"
	"github.com/tu-usuario/facturador-afip/internal/application/dto"
)

// FiscalHandler maneja la configuración fiscal del emisor (protegido, admin).
type FiscalHandler struct {
	uc *billing.FiscalConfigUseCase
}

// NewFiscalHandler construye el handler.
func NewFiscalHandler(uc *billing.FiscalConfigUseCase) *FiscalHandler {
	return &FiscalHandler{uc: uc}
}

// Get devuelve la configuración fiscal vigente.
// GET /api/fiscal-config
func (h *FiscalHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update guarda los datos impositivos del emisor.
// PUT /api/fiscal-config
func (h *FiscalHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateFiscalConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UploadCertificates instala certificado y llave de un ambiente (PEM o PKCS#12).
// POST /api/fiscal-config/certificates
func (h *FiscalHandler) UploadCertificates(c *fiber.Ctx) error {
	var in dto.UploadCertificatesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UploadCertificates(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Readiness reporta si el emisor puede facturar contra AFIP.
// GET /api/fiscal-config/readiness
func (h *FiscalHandler) Readiness(c *fiber.Ctx) error {
	out, err := h.uc.Readiness()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
