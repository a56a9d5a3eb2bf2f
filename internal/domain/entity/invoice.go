package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de autorización de la factura frente a AFIP.
const (
	InvoiceStatusPending    = "PENDING"    // Persistida, autorización aún no resuelta
	InvoiceStatusAuthorized = "AUTHORIZED" // CAE otorgado (real o simulado)
	InvoiceStatusRejected   = "REJECTED"   // AFIP procesó y rechazó el comprobante
	InvoiceStatusError      = "ERROR"      // Falla de comunicación o interna durante el intento
)

// Invoice representa un comprobante fiscal electrónico.
// Emisor y receptor se guardan como snapshot al momento de emitir:
// cambios posteriores en la configuración o el cliente no alteran
// comprobantes ya generados.
type Invoice struct {
	ID     string
	SaleID string

	// Identidad fiscal del comprobante
	InvoiceType   int    // 1=A, 6=B, 11=C
	PointOfSale   int
	InvoiceNumber int64  // Asignado por AFIP (o simulado); 0 mientras PENDING
	IssueDate     time.Time

	// Snapshot del emisor
	EmitterCUIT         string
	EmitterBusinessName string
	EmitterIvaCondition string // IvaCondition del emisor al momento de emitir

	// Snapshot del receptor
	ReceiverName           string
	ReceiverDocumentType   int    // 80=CUIT, 86=CUIL, 96=DNI, 99=sin identificar
	ReceiverDocumentNumber string // solo dígitos
	ReceiverIvaCondition   string

	// Montos
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	OtherTaxes decimal.Decimal
	Total      decimal.Decimal

	// Desglose fiscal
	NetAmount       decimal.Decimal // Neto gravado (clase C: igual al total)
	NetAmountExempt decimal.Decimal // Neto exento
	Iva21           decimal.Decimal
	Iva105          decimal.Decimal
	Iva27           decimal.Decimal

	SaleCondition string // "CONTADO", "CUENTA_CORRIENTE", ...

	// Resultado de la autorización
	Status            string
	CAE               string // 14 dígitos cuando AUTHORIZED
	CAEExpirationDate time.Time
	QRData            string // URL del QR fiscal (JSON base64 según spec AFIP)
	AfipResponse      string // XML crudo de la última respuesta, para auditoría
	AfipErrorMessage  string // Mensaje legible del último rechazo/error
	Simulated         bool   // true si el CAE fue generado localmente

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRetryable indica si la factura admite un reintento de autorización.
func (i *Invoice) IsRetryable() bool {
	return i.Status == InvoiceStatusRejected || i.Status == InvoiceStatusError
}
