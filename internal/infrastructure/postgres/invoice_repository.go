package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, sale_id, invoice_type, point_of_sale, invoice_number, issue_date,
	emitter_cuit, emitter_business_name, emitter_iva_condition,
	receiver_name, receiver_document_type, receiver_document_number, receiver_iva_condition,
	subtotal, discount, other_taxes, total,
	net_amount, net_amount_exempt, iva21, iva105, iva27,
	sale_condition, status, cae, cae_expiration_date, qr_data,
	afip_response, afip_error_message, simulated, created_at, updated_at`

// Create persiste el comprobante (normalmente en estado PENDING).
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.SaleID, invoice.InvoiceType, invoice.PointOfSale, invoice.InvoiceNumber, invoice.IssueDate,
		invoice.EmitterCUIT, invoice.EmitterBusinessName, invoice.EmitterIvaCondition,
		invoice.ReceiverName, invoice.ReceiverDocumentType, invoice.ReceiverDocumentNumber, invoice.ReceiverIvaCondition,
		invoice.Subtotal, invoice.Discount, invoice.OtherTaxes, invoice.Total,
		invoice.NetAmount, invoice.NetAmountExempt, invoice.Iva21, invoice.Iva105, invoice.Iva27,
		invoice.SaleCondition, invoice.Status, nullIfEmpty(invoice.CAE), nullIfZeroTime(invoice.CAEExpirationDate), nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.AfipResponse), nullIfEmpty(invoice.AfipErrorMessage), invoice.Simulated,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("la venta ya tiene factura: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update persiste el resultado de un intento de autorización.
func (r *InvoiceRepo) Update(invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET invoice_type        = $2,
		    invoice_number      = $3,
		    status              = $4,
		    cae                 = $5,
		    cae_expiration_date = $6,
		    qr_data             = $7,
		    afip_response       = $8,
		    afip_error_message  = $9,
		    simulated           = $10,
		    net_amount          = $11,
		    net_amount_exempt   = $12,
		    iva21               = $13,
		    iva105              = $14,
		    iva27               = $15,
		    receiver_name       = $16,
		    receiver_document_type   = $17,
		    receiver_document_number = $18,
		    receiver_iva_condition   = $19,
		    updated_at          = $20
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID,
		invoice.InvoiceType,
		invoice.InvoiceNumber,
		invoice.Status,
		nullIfEmpty(invoice.CAE),
		nullIfZeroTime(invoice.CAEExpirationDate),
		nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.AfipResponse),
		nullIfEmpty(invoice.AfipErrorMessage),
		invoice.Simulated,
		invoice.NetAmount,
		invoice.NetAmountExempt,
		invoice.Iva21,
		invoice.Iva105,
		invoice.Iva27,
		invoice.ReceiverName,
		invoice.ReceiverDocumentType,
		invoice.ReceiverDocumentNumber,
		invoice.ReceiverIvaCondition,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante por ID (nil, nil si no existe).
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	return r.getOne(`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetBySaleID obtiene el comprobante de una venta (nil, nil si no existe).
func (r *InvoiceRepo) GetBySaleID(saleID string) (*entity.Invoice, error) {
	return r.getOne(`SELECT `+invoiceColumns+` FROM invoices WHERE sale_id = $1`, saleID)
}

func (r *InvoiceRepo) getOne(query, arg string) (*entity.Invoice, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List devuelve comprobantes filtrados por estado y rango de emisión, con el
// total para paginación.
func (r *InvoiceRepo) List(filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	var conds []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, "issue_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, "issue_date <= $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(context.Background(), "SELECT COUNT(*) FROM invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, total, rows.Err()
}

// scanInvoice lee una fila con invoiceColumns en orden.
func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var cae, qrData, afipResponse, afipError *string
	var caeExp *time.Time
	err := row.Scan(
		&inv.ID, &inv.SaleID, &inv.InvoiceType, &inv.PointOfSale, &inv.InvoiceNumber, &inv.IssueDate,
		&inv.EmitterCUIT, &inv.EmitterBusinessName, &inv.EmitterIvaCondition,
		&inv.ReceiverName, &inv.ReceiverDocumentType, &inv.ReceiverDocumentNumber, &inv.ReceiverIvaCondition,
		&inv.Subtotal, &inv.Discount, &inv.OtherTaxes, &inv.Total,
		&inv.NetAmount, &inv.NetAmountExempt, &inv.Iva21, &inv.Iva105, &inv.Iva27,
		&inv.SaleCondition, &inv.Status, &cae, &caeExp, &qrData,
		&afipResponse, &afipError, &inv.Simulated, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.CAE = derefStr(cae)
	inv.QRData = derefStr(qrData)
	inv.AfipResponse = derefStr(afipResponse)
	inv.AfipErrorMessage = derefStr(afipError)
	if caeExp != nil {
		inv.CAEExpirationDate = *caeExp
	}
	return &inv, nil
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
