package repository

import (
	"time"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// InvoiceFilter filtros del listado de facturas.
type InvoiceFilter struct {
	Status string     // vacío = todos
	From   *time.Time // fecha de emisión desde (inclusive)
	To     *time.Time // fecha de emisión hasta (inclusive)
	Limit  int
	Offset int
}

// InvoiceRepository define el puerto de persistencia para Invoice.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	// Update persiste el resultado de un intento de autorización:
	// status, invoice_number, cae, cae_expiration, qr_data, afip_response,
	// afip_error_message, simulated y el desglose recalculado en reintentos.
	Update(invoice *entity.Invoice) error
	GetByID(id string) (*entity.Invoice, error)
	GetBySaleID(saleID string) (*entity.Invoice, error)
	List(filter InvoiceFilter) ([]*entity.Invoice, int, error)
}
