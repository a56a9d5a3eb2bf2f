package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceListRequest filtros para GET /api/invoices.
// From/To acotan por fecha de emisión, formato "2006-01-02".
type InvoiceListRequest struct {
	Status string `query:"status"`
	From   string `query:"from"`
	To     string `query:"to"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

// Normalize aplica valores por defecto de paginación.
func (r *InvoiceListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}

// Offset calcula el desplazamiento a partir de page/limit ya normalizados.
func (r *InvoiceListRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// InvoiceResponse comprobante en respuestas.
type InvoiceResponse struct {
	ID     string `json:"id"`
	SaleID string `json:"sale_id"`

	InvoiceType   int    `json:"invoice_type"` // 1=A, 6=B, 11=C
	PointOfSale   int    `json:"point_of_sale"`
	InvoiceNumber int64  `json:"invoice_number"`
	IssueDate     string `json:"issue_date"`

	EmitterCUIT         string `json:"emitter_cuit"`
	EmitterBusinessName string `json:"emitter_business_name"`
	EmitterIvaCondition string `json:"emitter_iva_condition"`

	ReceiverName           string `json:"receiver_name"`
	ReceiverDocumentType   int    `json:"receiver_document_type"`
	ReceiverDocumentNumber string `json:"receiver_document_number,omitempty"`
	ReceiverIvaCondition   string `json:"receiver_iva_condition,omitempty"`

	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	OtherTaxes decimal.Decimal `json:"other_taxes"`
	Total      decimal.Decimal `json:"total"`

	NetAmount       decimal.Decimal `json:"net_amount"`
	NetAmountExempt decimal.Decimal `json:"net_amount_exempt"`
	Iva21           decimal.Decimal `json:"iva_21"`
	Iva105          decimal.Decimal `json:"iva_105"`
	Iva27           decimal.Decimal `json:"iva_27"`

	SaleCondition string `json:"sale_condition"`

	Status            string    `json:"status"` // PENDING|AUTHORIZED|REJECTED|ERROR
	CAE               string    `json:"cae,omitempty"`
	CAEExpirationDate string    `json:"cae_expiration_date,omitempty"`
	QRData            string    `json:"qr_data,omitempty"`
	AfipErrorMessage  string    `json:"afip_error_message,omitempty"`
	Simulated         bool      `json:"simulated"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// InvoiceListResponse página de comprobantes.
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Page     PageResponse      `json:"page"`
}

// TestConnectionResponse resultado de la prueba de conectividad con AFIP.
type TestConnectionResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
}

// PhantomStatusResponse estado del cooldown por ticket fantasma.
type PhantomStatusResponse struct {
	Environment string `json:"environment"`
	Blocked     bool   `json:"blocked"`
	WaitMinutes int    `json:"wait_minutes"`
}
