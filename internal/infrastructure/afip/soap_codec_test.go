package afip

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domafip "github.com/tu-usuario/facturador-afip/internal/domain/afip"
)

func TestBuildTRA(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, loc)

	tra := string(BuildTRA("wsfe", now))

	assert.Contains(t, tra, "<uniqueId>"+"1748790000"+"</uniqueId>", "uniqueId es el unix timestamp")
	assert.Contains(t, tra, "<generationTime>2025-06-01T00:00:00-03:00</generationTime>")
	assert.Contains(t, tra, "<expirationTime>2025-06-02T00:00:00-03:00</expirationTime>")
	assert.Contains(t, tra, "<service>wsfe</service>")
	assert.True(t, strings.HasPrefix(tra, `<?xml version="1.0" encoding="UTF-8"?>`))
}

func TestBuildLoginCmsRequest(t *testing.T) {
	req := string(BuildLoginCmsRequest("Q01TLWJhc2U2NA=="))

	assert.Contains(t, req, `xmlns:wsaa="http://wsaa.view.sua.dvadac.desein.afip.gov"`)
	assert.Contains(t, req, "<wsaa:in0>Q01TLWJhc2U2NA==</wsaa:in0>")
	assert.Contains(t, req, "<wsaa:loginCms>")
}

func TestBuildLastAuthorizedRequest(t *testing.T) {
	auth := Auth{Token: "TOK", Sign: "SIG", CUIT: "20-12345678-9"}
	req := string(BuildLastAuthorizedRequest(auth, 3, 6))

	assert.Contains(t, req, "<ar:Cuit>20123456789</ar:Cuit>", "el CUIT viaja sin guiones")
	assert.Contains(t, req, "<ar:PtoVta>3</ar:PtoVta>")
	assert.Contains(t, req, "<ar:CbteTipo>6</ar:CbteTipo>")
	assert.Contains(t, req, `xmlns:ar="http://ar.gov.afip.dif.FEV1/"`)
}

func TestBuildCAERequest(t *testing.T) {
	auth := Auth{Token: "TOK", Sign: "SIG", CUIT: "20123456789"}
	req := CAERequest{
		PointOfSale:     1,
		InvoiceType:     6,
		InvoiceNumber:   124,
		IssueDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local),
		DocType:         96,
		DocNumber:       "12.345.678",
		Total:           decimal.NewFromFloat(1210),
		NetAmount:       decimal.NewFromFloat(1000),
		NetAmountExempt: decimal.Zero,
		VatTotal:        decimal.NewFromFloat(210),
		ReceiverIvaCode: 5,
		Brackets: []domafip.VatBracket{
			{ID: 5, BaseImp: decimal.NewFromFloat(1000), Amount: decimal.NewFromFloat(210)},
		},
	}

	xml := string(BuildCAERequest(auth, req))

	assert.Contains(t, xml, "<ar:CantReg>1</ar:CantReg>")
	assert.Contains(t, xml, "<ar:DocNro>12345678</ar:DocNro>", "el documento viaja solo con dígitos")
	assert.Contains(t, xml, "<ar:CbteDesde>124</ar:CbteDesde>")
	assert.Contains(t, xml, "<ar:CbteHasta>124</ar:CbteHasta>")
	assert.Contains(t, xml, "<ar:CbteFch>20250601</ar:CbteFch>")
	assert.Contains(t, xml, "<ar:ImpTotal>1210.00</ar:ImpTotal>")
	assert.Contains(t, xml, "<ar:ImpTotConc>0.00</ar:ImpTotConc>")
	assert.Contains(t, xml, "<ar:ImpNeto>1000.00</ar:ImpNeto>")
	assert.Contains(t, xml, "<ar:ImpIVA>210.00</ar:ImpIVA>")
	assert.Contains(t, xml, "<ar:ImpTrib>0.00</ar:ImpTrib>")
	assert.Contains(t, xml, "<ar:MonId>PES</ar:MonId>")
	assert.Contains(t, xml, "<ar:MonCotiz>1</ar:MonCotiz>")
	assert.Contains(t, xml, "<ar:CondicionIVAReceptorId>5</ar:CondicionIVAReceptorId>")
	assert.Contains(t, xml, "<ar:AlicIva><ar:Id>5</ar:Id><ar:BaseImp>1000.00</ar:BaseImp><ar:Importe>210.00</ar:Importe></ar:AlicIva>")
}

func TestBuildCAERequestSinBrackets(t *testing.T) {
	// Clase C: sin desglose de IVA, no debe emitirse el nodo Iva.
	req := CAERequest{
		PointOfSale:     1,
		InvoiceType:     11,
		InvoiceNumber:   1,
		IssueDate:       time.Now(),
		DocType:         99,
		DocNumber:       "0",
		Total:           decimal.NewFromFloat(500),
		NetAmount:       decimal.NewFromFloat(500),
		VatTotal:        decimal.Zero,
		ReceiverIvaCode: 5,
	}
	xml := string(BuildCAERequest(Auth{CUIT: "20123456789"}, req))
	require.NotContains(t, xml, "<ar:Iva>")
	assert.Contains(t, xml, "<ar:ImpIVA>0.00</ar:ImpIVA>")
}
