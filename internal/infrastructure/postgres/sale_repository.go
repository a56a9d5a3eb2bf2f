package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID obtiene una venta por ID (nil, nil si no existe).
func (r *SaleRepo) GetByID(id string) (*entity.Sale, error) {
	query := `
		SELECT id, COALESCE(customer_id, ''), status,
		       subtotal, discount, other_taxes, total,
		       sale_condition, sold_at, is_fiscal, fiscal_pending,
		       created_at, updated_at
		FROM sales WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&s.ID, &s.CustomerID, &s.Status,
		&s.Subtotal, &s.Discount, &s.OtherTaxes, &s.Total,
		&s.SaleCondition, &s.SoldAt, &s.IsFiscal, &s.FiscalPending,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// MarkFiscal actualiza las marcas fiscales de la venta tras un intento.
func (r *SaleRepo) MarkFiscal(saleID string, isFiscal, fiscalPending bool) error {
	query := `UPDATE sales SET is_fiscal = $2, fiscal_pending = $3, updated_at = $4 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, saleID, isFiscal, fiscalPending, time.Now())
	if err != nil {
		return fmt.Errorf("mark sale fiscal: %w", err)
	}
	return nil
}

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo lectura de clientes (receptores de comprobantes).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// GetByID obtiene un cliente por ID (nil, nil si no existe).
func (r *CustomerRepo) GetByID(id string) (*entity.Customer, error) {
	query := `
		SELECT id, name, document_type, COALESCE(document_number, ''), COALESCE(iva_condition, ''),
		       created_at, updated_at
		FROM customers WHERE id = $1`
	var c entity.Customer
	var ivaCond string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&c.ID, &c.Name, &c.DocumentType, &c.DocumentNumber, &ivaCond,
		&c.CreatedAt, &c.UpdatedAt,
	)
	c.IvaCondition = ivaCond
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
