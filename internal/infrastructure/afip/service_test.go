package afip

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

// seqCaller devuelve una respuesta distinta por llamada, en orden.
type seqCaller struct {
	responses [][]byte
	calls     int
}

func (c *seqCaller) Call(context.Context, string, string, []byte) ([]byte, error) {
	if c.calls >= len(c.responses) {
		return nil, &HTTPStatusError{Status: 500, Body: []byte("sin respuesta programada")}
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func newTestGateway(caller SOAPCaller) *Gateway {
	store := newFakeStore()
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "TOK", Sign: "SIG", ExpirationTime: time.Now().Add(6 * time.Hour),
	}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	tokens := NewTokenManager(store, fakeCerts{}, caller, fakeSigner{}, log)
	return NewGateway(caller, tokens, log)
}

func lastAuthorizedBody(nro int) []byte {
	return []byte(`<Envelope><Body><FECompUltimoAutorizadoResponse><FECompUltimoAutorizadoResult>` +
		`<CbteNro>` + strconv.Itoa(nro) + `</CbteNro>` +
		`</FECompUltimoAutorizadoResult></FECompUltimoAutorizadoResponse></Body></Envelope>`)
}

func caeApprovedBody(nro int, cae string) []byte {
	return []byte(`<Envelope><Body><FECAESolicitarResponse><FECAESolicitarResult>` +
		`<FeCabResp><Resultado>A</Resultado></FeCabResp>` +
		`<FeDetResp><FECAEDetResponse><CbteDesde>` + strconv.Itoa(nro) + `</CbteDesde>` +
		`<CAE>` + cae + `</CAE><CAEFchVto>20250611</CAEFchVto></FECAEDetResponse></FeDetResp>` +
		`</FECAESolicitarResult></FECAESolicitarResponse></Body></Envelope>`)
}

func TestAuthorizeNumeraDesdeElUltimoAutorizado(t *testing.T) {
	caller := &seqCaller{responses: [][]byte{
		lastAuthorizedBody(123),
		caeApprovedBody(124, "75123456789012"),
	}}
	g := newTestGateway(caller)

	result, err := g.Authorize(context.Background(), entity.EnvHomologacion, "20123456789", CAERequest{
		PointOfSale: 1,
		InvoiceType: 6,
		IssueDate:   time.Now(),
		DocType:     99,
		DocNumber:   "0",
		Total:       decimal.NewFromFloat(1210),
		NetAmount:   decimal.NewFromFloat(1000),
		VatTotal:    decimal.NewFromFloat(210),
	})
	require.NoError(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, "75123456789012", result.CAE)
	assert.Equal(t, int64(124), result.InvoiceNumber, "el número emitido es el último autorizado + 1")
	assert.Equal(t, 2, caller.calls)
}

func TestSimulate(t *testing.T) {
	g := newTestGateway(&seqCaller{})
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	result := g.Simulate(CAERequest{Total: decimal.NewFromFloat(1000)})

	assert.True(t, result.Approved)
	assert.True(t, result.Simulated)
	assert.Regexp(t, regexp.MustCompile(`^\d{14}$`), result.CAE, "el CAE simulado tiene exactamente 14 dígitos")
	assert.Equal(t, fixed.AddDate(0, 0, 10), result.CAEExpiration)
	assert.Equal(t, fixed.UnixMilli()%100000000, result.InvoiceNumber)
	require.Len(t, result.Observations, 1)
	assert.Contains(t, result.Observations[0], "[SIMULACIÓN]")
}

func TestTestConnectionOK(t *testing.T) {
	caller := &seqCaller{responses: [][]byte{lastAuthorizedBody(42)}}
	g := newTestGateway(caller)

	ok, msg := g.TestConnection(context.Background(), entity.EnvHomologacion, "20123456789", 1)
	assert.True(t, ok)
	assert.Contains(t, msg, "42")
}

func TestTestConnectionFalla(t *testing.T) {
	caller := &seqCaller{} // sin respuestas: todo 500
	g := newTestGateway(caller)

	ok, msg := g.TestConnection(context.Background(), entity.EnvHomologacion, "20123456789", 1)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}
