package afip

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domafip "github.com/tu-usuario/facturador-afip/internal/domain/afip"
	pkgafip "github.com/tu-usuario/facturador-afip/pkg/afip"
)

// ── Autenticación WSAA ─────────────────────────────────────────────────────────

// BuildTRA arma el Ticket de Requerimiento de Acceso para el servicio dado.
// La ventana de vigencia es ±12 h alrededor de now; uniqueId es el unix
// timestamp en segundos (AFIP solo exige que no se repita dentro de la ventana).
func BuildTRA(service string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<loginTicketRequest version="1.0">` + "\n")
	b.WriteString("  <header>\n")
	b.WriteString("    <uniqueId>" + strconv.FormatInt(now.Unix(), 10) + "</uniqueId>\n")
	b.WriteString("    <generationTime>" + pkgafip.FormatTRATime(now.Add(-12*time.Hour)) + "</generationTime>\n")
	b.WriteString("    <expirationTime>" + pkgafip.FormatTRATime(now.Add(12*time.Hour)) + "</expirationTime>\n")
	b.WriteString("  </header>\n")
	b.WriteString("  <service>" + service + "</service>\n")
	b.WriteString("</loginTicketRequest>")
	return []byte(b.String())
}

// BuildLoginCmsRequest arma el sobre SOAP de loginCms con el CMS en base64.
func BuildLoginCmsRequest(cmsBase64 string) []byte {
	var b strings.Builder
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:wsaa="http://wsaa.view.sua.dvadac.desein.afip.gov">`)
	b.WriteString("<soapenv:Header/>")
	b.WriteString("<soapenv:Body>")
	b.WriteString("<wsaa:loginCms>")
	b.WriteString("<wsaa:in0>" + cmsBase64 + "</wsaa:in0>")
	b.WriteString("</wsaa:loginCms>")
	b.WriteString("</soapenv:Body>")
	b.WriteString("</soapenv:Envelope>")
	return []byte(b.String())
}

// ── Facturación WSFEv1 ─────────────────────────────────────────────────────────

// Auth son las credenciales que viajan en cada operación WSFE.
type Auth struct {
	Token string
	Sign  string
	CUIT  string
}

// CAERequest es el detalle de comprobante a autorizar (CantReg fijo en 1).
type CAERequest struct {
	PointOfSale   int
	InvoiceType   int
	InvoiceNumber int64 // CbteDesde/CbteHasta; lo asigna el flujo tras consultar el último autorizado
	IssueDate     time.Time

	DocType   int
	DocNumber string // se limpia a dígitos antes de emitir

	Total           decimal.Decimal
	NetAmount       decimal.Decimal
	NetAmountExempt decimal.Decimal
	VatTotal        decimal.Decimal

	ReceiverIvaCode int
	Brackets        []domafip.VatBracket
}

// BuildLastAuthorizedRequest arma el sobre de FECompUltimoAutorizado.
func BuildLastAuthorizedRequest(auth Auth, pointOfSale, invoiceType int) []byte {
	var b strings.Builder
	writeEnvelopeOpen(&b)
	b.WriteString("<ar:FECompUltimoAutorizado>")
	writeAuth(&b, auth)
	b.WriteString("<ar:PtoVta>" + strconv.Itoa(pointOfSale) + "</ar:PtoVta>")
	b.WriteString("<ar:CbteTipo>" + strconv.Itoa(invoiceType) + "</ar:CbteTipo>")
	b.WriteString("</ar:FECompUltimoAutorizado>")
	writeEnvelopeClose(&b)
	return []byte(b.String())
}

// BuildCAERequest arma el sobre de FECAESolicitar para un único comprobante.
// Todos los montos viajan con dos decimales; ImpTotConc e ImpTrib van en cero
// (el POS solo emite concepto Productos sin tributos adicionales).
func BuildCAERequest(auth Auth, req CAERequest) []byte {
	var b strings.Builder
	writeEnvelopeOpen(&b)
	b.WriteString("<ar:FECAESolicitar>")
	writeAuth(&b, auth)
	b.WriteString("<ar:FeCAEReq>")

	b.WriteString("<ar:FeCabReq>")
	b.WriteString("<ar:CantReg>1</ar:CantReg>")
	b.WriteString("<ar:PtoVta>" + strconv.Itoa(req.PointOfSale) + "</ar:PtoVta>")
	b.WriteString("<ar:CbteTipo>" + strconv.Itoa(req.InvoiceType) + "</ar:CbteTipo>")
	b.WriteString("</ar:FeCabReq>")

	b.WriteString("<ar:FeDetReq>")
	b.WriteString("<ar:FECAEDetRequest>")
	b.WriteString("<ar:Concepto>" + strconv.Itoa(pkgafip.ConceptoProductos) + "</ar:Concepto>")
	b.WriteString("<ar:DocTipo>" + strconv.Itoa(req.DocType) + "</ar:DocTipo>")
	b.WriteString("<ar:DocNro>" + onlyDigits(req.DocNumber) + "</ar:DocNro>")
	nro := strconv.FormatInt(req.InvoiceNumber, 10)
	b.WriteString("<ar:CbteDesde>" + nro + "</ar:CbteDesde>")
	b.WriteString("<ar:CbteHasta>" + nro + "</ar:CbteHasta>")
	b.WriteString("<ar:CbteFch>" + pkgafip.FormatDate(req.IssueDate) + "</ar:CbteFch>")
	b.WriteString("<ar:ImpTotal>" + req.Total.StringFixed(2) + "</ar:ImpTotal>")
	b.WriteString("<ar:ImpTotConc>0.00</ar:ImpTotConc>")
	b.WriteString("<ar:ImpNeto>" + req.NetAmount.StringFixed(2) + "</ar:ImpNeto>")
	b.WriteString("<ar:ImpOpEx>" + req.NetAmountExempt.StringFixed(2) + "</ar:ImpOpEx>")
	b.WriteString("<ar:ImpIVA>" + req.VatTotal.StringFixed(2) + "</ar:ImpIVA>")
	b.WriteString("<ar:ImpTrib>0.00</ar:ImpTrib>")
	b.WriteString("<ar:MonId>" + pkgafip.MonedaPES + "</ar:MonId>")
	b.WriteString("<ar:MonCotiz>" + strconv.Itoa(pkgafip.CotizacionPES) + "</ar:MonCotiz>")
	b.WriteString("<ar:CondicionIVAReceptorId>" + strconv.Itoa(req.ReceiverIvaCode) + "</ar:CondicionIVAReceptorId>")

	if len(req.Brackets) > 0 {
		b.WriteString("<ar:Iva>")
		for _, br := range req.Brackets {
			b.WriteString("<ar:AlicIva>")
			b.WriteString("<ar:Id>" + strconv.Itoa(br.ID) + "</ar:Id>")
			b.WriteString("<ar:BaseImp>" + br.BaseImp.StringFixed(2) + "</ar:BaseImp>")
			b.WriteString("<ar:Importe>" + br.Amount.StringFixed(2) + "</ar:Importe>")
			b.WriteString("</ar:AlicIva>")
		}
		b.WriteString("</ar:Iva>")
	}

	b.WriteString("</ar:FECAEDetRequest>")
	b.WriteString("</ar:FeDetReq>")
	b.WriteString("</ar:FeCAEReq>")
	b.WriteString("</ar:FECAESolicitar>")
	writeEnvelopeClose(&b)
	return []byte(b.String())
}

func writeEnvelopeOpen(b *strings.Builder) {
	b.WriteString(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ar="` + wsfeActionBase + `">`)
	b.WriteString("<soap:Header/>")
	b.WriteString("<soap:Body>")
}

func writeEnvelopeClose(b *strings.Builder) {
	b.WriteString("</soap:Body>")
	b.WriteString("</soap:Envelope>")
}

func writeAuth(b *strings.Builder, auth Auth) {
	b.WriteString("<ar:Auth>")
	b.WriteString("<ar:Token>" + auth.Token + "</ar:Token>")
	b.WriteString("<ar:Sign>" + auth.Sign + "</ar:Sign>")
	b.WriteString("<ar:Cuit>" + onlyDigits(auth.CUIT) + "</ar:Cuit>")
	b.WriteString("</ar:Auth>")
}

// onlyDigits limpia guiones y espacios de CUIT/DNI ("20-12345678-9" -> "20123456789").
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
