package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturador-afip/internal/application/dto"
	"github.com/tu-usuario/facturador-afip/internal/domain"
)

// respondError traduce errores de dominio a respuestas HTTP. Todo lo no
// reconocido cae a 500.
func respondError(c *fiber.Ctx, err error) error {
	var precond *domain.PreconditionError
	if errors.As(err, &precond) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "PRECONDITION", Message: precond.Reason})
	}
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CONFIG_INCOMPLETE", Message: cfgErr.Reason})
	}
	var phantom *domain.PhantomTokenError
	if errors.As(err, &phantom) {
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{Code: "PHANTOM_TOKEN", Message: phantom.Error()})
	}
	var commErr *domain.CommunicationError
	if errors.As(err, &commErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_UNAVAILABLE", Message: commErr.Error()})
	}
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_AUTH", Message: authErr.Error()})
	}
	var signErr *domain.SigningError
	if errors.As(err, &signErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERT_ERROR", Message: signErr.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvoiceExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVOICE_EXISTS", Message: err.Error()})
	case errors.Is(err, domain.ErrSaleCancelled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SALE_CANCELLED", Message: err.Error()})
	case errors.Is(err, domain.ErrNotRetryable):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_RETRYABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
