package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrSaleCancelled      = errors.New("la venta está cancelada")
	ErrInvoiceExists      = errors.New("la venta ya tiene una factura generada")
	ErrNotRetryable       = errors.New("la factura no está en un estado reintentable")
)

// PreconditionError indica que la factura no puede intentarse contra AFIP
// por datos faltantes o inválidos (se detecta antes de tocar la red).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondición de facturación: " + e.Reason
}

// ConfigurationError indica configuración fiscal incompleta o inválida.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuración fiscal: " + e.Reason
}

// AuthenticationError indica una falla del ciclo WSAA distinta del ticket fantasma.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "autenticación AFIP: " + e.Reason
}

// PhantomTokenError indica que AFIP reportó un ticket de acceso vigente que
// este sistema no conoce. El ambiente queda en cooldown hasta que expire.
type PhantomTokenError struct {
	Environment string
	WaitMinutes int
}

func (e *PhantomTokenError) Error() string {
	return fmt.Sprintf(
		"AFIP reporta un ticket de acceso vigente no registrado en %s; reintentar en %d minutos",
		e.Environment, e.WaitMinutes)
}

// RejectionError indica que AFIP procesó la solicitud y la rechazó.
// Errors trae los mensajes de detalle; Observations las observaciones no fatales.
type RejectionError struct {
	Errors       []string
	Observations []string
}

func (e *RejectionError) Error() string {
	if len(e.Errors) > 0 {
		return "comprobante rechazado por AFIP: " + strings.Join(e.Errors, "; ")
	}
	return "comprobante rechazado por AFIP"
}

// CommunicationError indica que no se pudo completar el intercambio con AFIP
// (red, timeout, respuesta no parseable). No dice nada del comprobante.
type CommunicationError struct {
	Operation string
	Err       error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("comunicación con AFIP (%s): %v", e.Operation, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// SigningError indica una falla al firmar el TRA (certificado, llave, CMS).
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("firma del ticket de acceso: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }
