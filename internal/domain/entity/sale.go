package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta (la venta la crea el módulo de caja; aquí solo se lee
// y se marca como facturada).
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
)

// Condiciones de venta aceptadas por el comprobante.
const (
	SaleConditionContado         = "CONTADO"
	SaleConditionCuentaCorriente = "CUENTA_CORRIENTE"
)

// Sale es la venta de caja sobre la que se emite el comprobante.
type Sale struct {
	ID            string
	CustomerID    string // vacío = consumidor final sin identificar
	Status        string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	OtherTaxes    decimal.Decimal
	Total         decimal.Decimal
	SaleCondition string
	SoldAt        time.Time

	// Marcas fiscales sobre la venta
	IsFiscal      bool // true cuando tiene factura AUTHORIZED
	FiscalPending bool // true cuando la factura quedó REJECTED/ERROR

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer es el receptor del comprobante.
type Customer struct {
	ID             string
	Name           string
	DocumentType   int    // 80=CUIT, 86=CUIL, 96=DNI, 99=sin identificar
	DocumentNumber string
	IvaCondition   string // IvaCondition; vacío = consumidor final
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
