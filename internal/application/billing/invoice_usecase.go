package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturador-afip/internal/application/dto"
	"github.com/tu-usuario/facturador-afip/internal/domain"
	domafip "github.com/tu-usuario/facturador-afip/internal/domain/afip"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/internal/domain/repository"
	infraafip "github.com/tu-usuario/facturador-afip/internal/infrastructure/afip"
	pkgafip "github.com/tu-usuario/facturador-afip/pkg/afip"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

// qrURLBase es la URL pública de validación del QR fiscal (RG 4892).
const qrURLBase = "https://www.afip.gob.ar/fe/qr/?p="

// InvoiceUseCase orquesta la emisión de comprobantes: a partir de una venta
// cerrada arma el comprobante, lo persiste PENDING y recién entonces intenta
// la autorización (real o simulada). El resultado del intento, incluido un
// fallo, siempre queda capturado en el comprobante.
type InvoiceUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	fiscalRepo   repository.FiscalConfigRepository
	gateway      AfipGateway
	log          *logger.Logger
	now          func() time.Time
}

// NewInvoiceUseCase construye el caso de uso de facturación.
func NewInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	fiscalRepo repository.FiscalConfigRepository,
	gateway AfipGateway,
	log *logger.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		invoiceRepo:  invoiceRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		fiscalRepo:   fiscalRepo,
		gateway:      gateway,
		log:          log,
		now:          time.Now,
	}
}

// GenerateInvoice emite el comprobante de una venta.
//
// El comprobante se persiste en PENDING antes de tocar la red: si el proceso
// muere a mitad del intento queda un registro reintentable, nunca una
// autorización sin rastro. Los errores del intento (comunicación, ticket
// fantasma) no se propagan: quedan en el comprobante con estado ERROR.
func (uc *InvoiceUseCase) GenerateInvoice(ctx context.Context, saleID string) (*dto.InvoiceResponse, error) {
	sale, err := uc.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	existing, err := uc.invoiceRepo.GetBySaleID(saleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrInvoiceExists
	}
	if sale.Status == entity.SaleStatusCancelled {
		return nil, domain.ErrSaleCancelled
	}

	cfg, err := uc.fiscalRepo.Get()
	if err != nil {
		return nil, err
	}
	customer, err := uc.resolveCustomer(sale)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		SaleID:    sale.ID,
		IssueDate: now,
		Status:    entity.InvoiceStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := fillFiscalData(inv, sale, customer, cfg); err != nil {
		return nil, err
	}
	if err := uc.invoiceRepo.Create(inv); err != nil {
		return nil, err
	}

	// El modo (real o simulación) se decide una sola vez, antes del intento.
	simulate := cfg == nil || !cfg.ReadyForInvoicing()
	uc.attempt(ctx, inv, cfg, simulate)

	if err := uc.invoiceRepo.Update(inv); err != nil {
		return nil, err
	}
	uc.markSale(inv)
	return toInvoiceResponse(inv), nil
}

// RetryAuthorization reintenta la autorización de un comprobante REJECTED o
// ERROR. Venta, cliente y configuración se releen completos: si el operador
// corrigió datos (un CUIT mal cargado, el certificado), el reintento sale
// con los datos corregidos.
func (uc *InvoiceUseCase) RetryAuthorization(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if !inv.IsRetryable() {
		return nil, domain.ErrNotRetryable
	}

	sale, err := uc.saleRepo.GetByID(inv.SaleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.Status == entity.SaleStatusCancelled {
		return nil, domain.ErrSaleCancelled
	}
	cfg, err := uc.fiscalRepo.Get()
	if err != nil {
		return nil, err
	}
	customer, err := uc.resolveCustomer(sale)
	if err != nil {
		return nil, err
	}
	if err := fillFiscalData(inv, sale, customer, cfg); err != nil {
		return nil, err
	}
	inv.IssueDate = uc.now()

	simulate := cfg == nil || !cfg.ReadyForInvoicing()
	uc.attempt(ctx, inv, cfg, simulate)

	if err := uc.invoiceRepo.Update(inv); err != nil {
		return nil, err
	}
	uc.markSale(inv)
	return toInvoiceResponse(inv), nil
}

// GetInvoice devuelve un comprobante por ID.
func (uc *InvoiceUseCase) GetInvoice(id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return toInvoiceResponse(inv), nil
}

// GetBySale devuelve el comprobante emitido para una venta.
func (uc *InvoiceUseCase) GetBySale(saleID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetBySaleID(saleID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return toInvoiceResponse(inv), nil
}

// List devuelve comprobantes paginados, filtrables por estado y rango de
// fecha de emisión ("2006-01-02", To inclusive).
func (uc *InvoiceUseCase) List(req dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	req.Normalize()

	filter := repository.InvoiceFilter{
		Limit:  req.Limit,
		Offset: req.Offset(),
	}
	if req.Status != "" {
		switch req.Status {
		case entity.InvoiceStatusPending, entity.InvoiceStatusAuthorized,
			entity.InvoiceStatusRejected, entity.InvoiceStatusError:
			filter.Status = req.Status
		default:
			return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, req.Status)
		}
	}
	if req.From != "" {
		from, err := time.ParseInLocation("2006-01-02", req.From, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: from inválido %q", domain.ErrInvalidInput, req.From)
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation("2006-01-02", req.To, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: to inválido %q", domain.ErrInvalidInput, req.To)
		}
		to = to.AddDate(0, 0, 1).Add(-time.Second)
		filter.To = &to
	}

	invoices, total, err := uc.invoiceRepo.List(filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, *toInvoiceResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Invoices: items,
		Page:     dto.PageResponse{Limit: req.Limit, Offset: req.Offset(), Total: total},
	}, nil
}

// TestConnection verifica autenticación y acceso a WSFE con la configuración
// vigente.
func (uc *InvoiceUseCase) TestConnection(ctx context.Context) (*dto.TestConnectionResponse, error) {
	cfg, err := uc.fiscalRepo.Get()
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.ReadyForInvoicing() {
		return nil, &domain.ConfigurationError{Reason: "configuración fiscal incompleta; no hay contra qué probar"}
	}
	ok, msg := uc.gateway.TestConnection(ctx, cfg.ActiveEnvironment, cfg.CUIT, cfg.PointOfSale)
	return &dto.TestConnectionResponse{Ok: ok, Message: msg}, nil
}

// InvalidateAuthToken descarta el ticket WSAA del ambiente activo.
func (uc *InvoiceUseCase) InvalidateAuthToken() error {
	env, err := uc.activeEnvironment()
	if err != nil {
		return err
	}
	return uc.gateway.InvalidateToken(env)
}

// PhantomStatus expone el estado del cooldown por ticket fantasma del
// ambiente activo.
func (uc *InvoiceUseCase) PhantomStatus() (*dto.PhantomStatusResponse, error) {
	env, err := uc.activeEnvironment()
	if err != nil {
		return nil, err
	}
	st := uc.gateway.PhantomCooldown(env)
	return &dto.PhantomStatusResponse{
		Environment: string(st.Environment),
		Blocked:     st.Blocked,
		WaitMinutes: st.WaitMinutes,
	}, nil
}

func (uc *InvoiceUseCase) activeEnvironment() (entity.Environment, error) {
	cfg, err := uc.fiscalRepo.Get()
	if err != nil {
		return "", err
	}
	if cfg == nil || !cfg.ActiveEnvironment.Valid() {
		return entity.EnvHomologacion, nil
	}
	return cfg.ActiveEnvironment, nil
}

// resolveCustomer carga el receptor de la venta. Venta sin cliente (o con
// cliente borrado) factura a consumidor final sin identificar.
func (uc *InvoiceUseCase) resolveCustomer(sale *entity.Sale) (*entity.Customer, error) {
	if sale.CustomerID == "" {
		return consumidorFinal(), nil
	}
	customer, err := uc.customerRepo.GetByID(sale.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return consumidorFinal(), nil
	}
	return customer, nil
}

func consumidorFinal() *entity.Customer {
	return &entity.Customer{
		Name:           "Consumidor Final",
		DocumentType:   pkgafip.DocSinIdentificar,
		DocumentNumber: "0",
		IvaCondition:   string(entity.IvaConsumidorFinal),
	}
}

// fillFiscalData resuelve clase de comprobante, snapshots de emisor y
// receptor y desglose de montos sobre el comprobante. Se usa tanto en la
// emisión inicial como en el reintento (que refresca todo).
func fillFiscalData(inv *entity.Invoice, sale *entity.Sale, customer *entity.Customer, cfg *entity.FiscalConfig) error {
	var emitterCond entity.IvaCondition
	if cfg != nil {
		emitterCond = cfg.IvaCondition
		inv.EmitterCUIT = cfg.CUIT
		inv.EmitterBusinessName = cfg.BusinessName
		inv.PointOfSale = cfg.PointOfSale
	}
	inv.EmitterIvaCondition = string(emitterCond)
	if inv.PointOfSale <= 0 {
		inv.PointOfSale = 1
	}

	receiverCond := entity.IvaCondition(customer.IvaCondition)
	invoiceType := domafip.InvoiceClass(emitterCond, receiverCond)

	// Factura A exige receptor identificado con CUIT/CUIL. Se corta acá,
	// antes de tocar la red: AFIP lo rechazaría igual pero con un mensaje
	// mucho menos útil.
	if invoiceType == pkgafip.CbteFacturaA &&
		customer.DocumentType != pkgafip.DocCUIT && customer.DocumentType != pkgafip.DocCUIL {
		return &domain.PreconditionError{
			Reason: "Factura A requiere receptor con CUIT o CUIL; corregí el documento del cliente",
		}
	}

	inv.InvoiceType = invoiceType
	inv.ReceiverName = customer.Name
	inv.ReceiverDocumentType = customer.DocumentType
	inv.ReceiverDocumentNumber = onlyDigits(customer.DocumentNumber)
	inv.ReceiverIvaCondition = customer.IvaCondition

	inv.Subtotal = sale.Subtotal
	inv.Discount = sale.Discount
	inv.OtherTaxes = sale.OtherTaxes
	inv.Total = sale.Total
	inv.SaleCondition = sale.SaleCondition
	if inv.SaleCondition == "" {
		inv.SaleCondition = entity.SaleConditionContado
	}

	// El POS vende todo a la alícuota general; el desglose reparte el total
	// IVA incluido en neto + complemento para que cierre al centavo.
	net := domafip.CalcNet(sale.Total, invoiceType, domafip.Rate21())
	vat := domafip.CalcVat(sale.Total, net, invoiceType)
	inv.NetAmount = net
	inv.NetAmountExempt = decimal.Zero
	inv.Iva21 = vat
	inv.Iva105 = decimal.Zero
	inv.Iva27 = decimal.Zero
	return nil
}

// attempt ejecuta la autorización (real o simulada) y vuelca el resultado en
// el comprobante. Nunca devuelve error: toda falla queda en estado ERROR con
// su mensaje.
func (uc *InvoiceUseCase) attempt(ctx context.Context, inv *entity.Invoice, cfg *entity.FiscalConfig, simulate bool) {
	req := uc.buildCAERequest(inv)

	var result *infraafip.CAEResult
	if simulate {
		result = uc.gateway.Simulate(req)
	} else {
		var err error
		result, err = uc.gateway.Authorize(ctx, cfg.ActiveEnvironment, cfg.CUIT, req)
		if err != nil {
			inv.Status = entity.InvoiceStatusError
			inv.AfipErrorMessage = err.Error()
			inv.UpdatedAt = uc.now()
			uc.log.Error().Err(err).
				Str("invoiceID", inv.ID).
				Str("saleID", inv.SaleID).
				Msg("fallo el intento de autorización")
			return
		}
	}
	uc.applyResult(inv, result)
}

func (uc *InvoiceUseCase) buildCAERequest(inv *entity.Invoice) infraafip.CAERequest {
	var net21 decimal.Decimal
	if domafip.DiscriminatesVAT(inv.InvoiceType) {
		net21 = inv.NetAmount
	}
	return infraafip.CAERequest{
		PointOfSale:     inv.PointOfSale,
		InvoiceType:     inv.InvoiceType,
		IssueDate:       inv.IssueDate,
		DocType:         inv.ReceiverDocumentType,
		DocNumber:       inv.ReceiverDocumentNumber,
		Total:           inv.Total,
		NetAmount:       inv.NetAmount,
		NetAmountExempt: inv.NetAmountExempt,
		VatTotal:        inv.Iva21.Add(inv.Iva105).Add(inv.Iva27),
		ReceiverIvaCode: domafip.ReceiverConditionCode(entity.IvaCondition(inv.ReceiverIvaCondition)),
		Brackets:        domafip.VatBrackets(net21, decimal.Zero, decimal.Zero),
	}
}

// applyResult transiciona el comprobante según el veredicto de AFIP (o la
// simulación).
func (uc *InvoiceUseCase) applyResult(inv *entity.Invoice, result *infraafip.CAEResult) {
	inv.UpdatedAt = uc.now()
	inv.Simulated = result.Simulated
	inv.AfipResponse = result.Raw
	if result.Simulated {
		inv.AfipResponse = strings.Join(result.Observations, "; ")
	}

	if !result.Approved {
		inv.Status = entity.InvoiceStatusRejected
		msgs := append(append([]string{}, result.Errors...), result.Observations...)
		inv.AfipErrorMessage = strings.Join(msgs, "; ")
		uc.log.Warn().
			Str("invoiceID", inv.ID).
			Str("motivo", inv.AfipErrorMessage).
			Msg("comprobante rechazado")
		return
	}

	inv.Status = entity.InvoiceStatusAuthorized
	inv.CAE = result.CAE
	inv.CAEExpirationDate = result.CAEExpiration
	inv.InvoiceNumber = result.InvoiceNumber
	inv.AfipErrorMessage = ""
	inv.QRData = buildQRData(inv)
	uc.log.Info().
		Str("invoiceID", inv.ID).
		Int64("cbteNro", inv.InvoiceNumber).
		Str("cae", inv.CAE).
		Bool("simulated", inv.Simulated).
		Msg("comprobante autorizado")
}

// markSale actualiza las marcas fiscales de la venta según el desenlace.
// Un fallo acá no voltea la operación: el comprobante ya quedó persistido.
func (uc *InvoiceUseCase) markSale(inv *entity.Invoice) {
	isFiscal := inv.Status == entity.InvoiceStatusAuthorized
	if err := uc.saleRepo.MarkFiscal(inv.SaleID, isFiscal, inv.IsRetryable()); err != nil {
		uc.log.Warn().Err(err).Str("saleID", inv.SaleID).Msg("no se pudo marcar la venta")
	}
}

// qrPayload es el JSON del QR fiscal según la especificación de la RG 4892.
type qrPayload struct {
	Ver        int     `json:"ver"`
	Fecha      string  `json:"fecha"`
	CUIT       int64   `json:"cuit"`
	PtoVta     int     `json:"ptoVta"`
	TipoCmp    int     `json:"tipoCmp"`
	NroCmp     int64   `json:"nroCmp"`
	Importe    float64 `json:"importe"`
	Moneda     string  `json:"moneda"`
	Ctz        int     `json:"ctz"`
	TipoDocRec int     `json:"tipoDocRec,omitempty"`
	NroDocRec  int64   `json:"nroDocRec,omitempty"`
	TipoCodAut string  `json:"tipoCodAut"`
	CodAut     int64   `json:"codAut"`
}

// buildQRData arma la URL del QR fiscal: payload JSON en base64 sobre la URL
// pública de validación. Receptor sin identificar (doc 99) omite tipo y
// número de documento.
func buildQRData(inv *entity.Invoice) string {
	cuit, _ := strconv.ParseInt(onlyDigits(inv.EmitterCUIT), 10, 64)
	codAut, _ := strconv.ParseInt(inv.CAE, 10, 64)
	importe, _ := inv.Total.Round(2).Float64()

	p := qrPayload{
		Ver:        1,
		Fecha:      inv.IssueDate.Format("2006-01-02"),
		CUIT:       cuit,
		PtoVta:     inv.PointOfSale,
		TipoCmp:    inv.InvoiceType,
		NroCmp:     inv.InvoiceNumber,
		Importe:    importe,
		Moneda:     pkgafip.MonedaPES,
		Ctz:        pkgafip.CotizacionPES,
		TipoCodAut: pkgafip.TipoCodAutCAE,
		CodAut:     codAut,
	}
	if inv.ReceiverDocumentType != pkgafip.DocSinIdentificar {
		p.TipoDocRec = inv.ReceiverDocumentType
		p.NroDocRec, _ = strconv.ParseInt(inv.ReceiverDocumentNumber, 10, 64)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return qrURLBase + base64.StdEncoding.EncodeToString(raw)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:                     inv.ID,
		SaleID:                 inv.SaleID,
		InvoiceType:            inv.InvoiceType,
		PointOfSale:            inv.PointOfSale,
		InvoiceNumber:          inv.InvoiceNumber,
		IssueDate:              inv.IssueDate.Format("2006-01-02"),
		EmitterCUIT:            inv.EmitterCUIT,
		EmitterBusinessName:    inv.EmitterBusinessName,
		EmitterIvaCondition:    inv.EmitterIvaCondition,
		ReceiverName:           inv.ReceiverName,
		ReceiverDocumentType:   inv.ReceiverDocumentType,
		ReceiverDocumentNumber: inv.ReceiverDocumentNumber,
		ReceiverIvaCondition:   inv.ReceiverIvaCondition,
		Subtotal:               inv.Subtotal,
		Discount:               inv.Discount,
		OtherTaxes:             inv.OtherTaxes,
		Total:                  inv.Total,
		NetAmount:              inv.NetAmount,
		NetAmountExempt:        inv.NetAmountExempt,
		Iva21:                  inv.Iva21,
		Iva105:                 inv.Iva105,
		Iva27:                  inv.Iva27,
		SaleCondition:          inv.SaleCondition,
		Status:                 inv.Status,
		CAE:                    inv.CAE,
		QRData:                 inv.QRData,
		AfipErrorMessage:       inv.AfipErrorMessage,
		Simulated:              inv.Simulated,
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
	}
	if !inv.CAEExpirationDate.IsZero() {
		resp.CAEExpirationDate = inv.CAEExpirationDate.Format("2006-01-02")
	}
	return resp
}
