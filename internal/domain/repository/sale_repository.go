package repository

import "github.com/tu-usuario/facturador-afip/internal/domain/entity"

// SaleRepository define el puerto de lectura de ventas y marcado fiscal.
// La creación de ventas pertenece al módulo de caja, no a este servicio.
type SaleRepository interface {
	GetByID(id string) (*entity.Sale, error)
	// MarkFiscal actualiza las marcas is_fiscal / fiscal_pending tras un
	// intento de autorización.
	MarkFiscal(saleID string, isFiscal, fiscalPending bool) error
}

// CustomerRepository define el puerto de lectura de clientes (receptores).
type CustomerRepository interface {
	GetByID(id string) (*entity.Customer, error)
}
