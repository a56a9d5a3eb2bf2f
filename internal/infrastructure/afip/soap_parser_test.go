package afip

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsaaResponseXML arma una respuesta de loginCms como la devuelve WSAA:
// el loginTicketResponse viaja XML-escapado dentro de loginCmsReturn.
func wsaaResponseXML(token, sign, expiration string) []byte {
	inner := `<loginTicketResponse version="1.0">` +
		`<header><source>CN=wsaa</source><expirationTime>` + expiration + `</expirationTime></header>` +
		`<credentials><token>` + token + `</token><sign>` + sign + `</sign></credentials>` +
		`</loginTicketResponse>`
	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(inner)
	return []byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<soapenv:Body><ns1:loginCmsResponse xmlns:ns1="https://wsaa.afip.gov.ar/ws/services/LoginCms">` +
		`<ns1:loginCmsReturn>` + escaped + `</ns1:loginCmsReturn>` +
		`</ns1:loginCmsResponse></soapenv:Body></soapenv:Envelope>`)
}

func TestParseLoginCmsResponse(t *testing.T) {
	body := wsaaResponseXML("PD94bWw=", "c2lnbg==", "2025-06-02T00:00:00.000-03:00")

	token, err := ParseLoginCmsResponse(body)
	require.NoError(t, err)

	assert.Equal(t, "PD94bWw=", token.Token)
	assert.Equal(t, "c2lnbg==", token.Sign)
	assert.Equal(t, 2025, token.ExpirationTime.Year())
	assert.Equal(t, time.June, token.ExpirationTime.Month())
}

func TestParseLoginCmsResponseSinCredenciales(t *testing.T) {
	_, err := ParseLoginCmsResponse([]byte(`<Envelope><Body/></Envelope>`))
	assert.Error(t, err, "sin loginCmsReturn no hay ticket")
}

func TestParseLastAuthorizedResponse(t *testing.T) {
	body := []byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">` +
		`<FECompUltimoAutorizadoResult><PtoVta>1</PtoVta><CbteTipo>6</CbteTipo><CbteNro>123</CbteNro></FECompUltimoAutorizadoResult>` +
		`</FECompUltimoAutorizadoResponse></soap:Body></soap:Envelope>`)

	nro, err := ParseLastAuthorizedResponse(body)
	require.NoError(t, err)
	assert.Equal(t, int64(123), nro)
}

func TestParseLastAuthorizedResponseConErrores(t *testing.T) {
	body := []byte(`<Envelope><Body><FECompUltimoAutorizadoResponse>` +
		`<FECompUltimoAutorizadoResult><Errors><Err><Code>600</Code><Msg>Token invalido</Msg></Err></Errors></FECompUltimoAutorizadoResult>` +
		`</FECompUltimoAutorizadoResponse></Body></Envelope>`)

	_, err := ParseLastAuthorizedResponse(body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[600] Token invalido")
}

func TestParseCAEResponseAprobado(t *testing.T) {
	body := []byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/"><FECAESolicitarResult>` +
		`<FeCabResp><Resultado>A</Resultado><CantReg>1</CantReg></FeCabResp>` +
		`<FeDetResp><FECAEDetResponse><CbteDesde>124</CbteDesde><CbteHasta>124</CbteHasta>` +
		`<Resultado>A</Resultado><CAE>75123456789012</CAE><CAEFchVto>20250611</CAEFchVto>` +
		`</FECAEDetResponse></FeDetResp>` +
		`</FECAESolicitarResult></FECAESolicitarResponse></soap:Body></soap:Envelope>`)

	result, err := ParseCAEResponse(body)
	require.NoError(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, "75123456789012", result.CAE)
	assert.Len(t, result.CAE, 14)
	assert.Equal(t, int64(124), result.InvoiceNumber)
	assert.Equal(t, 2025, result.CAEExpiration.Year())
	assert.Equal(t, 11, result.CAEExpiration.Day())
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.Raw, "el XML crudo se conserva para auditoría")
}

func TestParseCAEResponseRechazado(t *testing.T) {
	body := []byte(`<Envelope><Body><FECAESolicitarResponse><FECAESolicitarResult>` +
		`<FeCabResp><Resultado>R</Resultado></FeCabResp>` +
		`<FeDetResp><FECAEDetResponse><Resultado>R</Resultado>` +
		`<Observaciones><Obs><Code>10192</Code><Msg>CUIT del receptor no registrado</Msg></Obs></Observaciones>` +
		`<Errors><Err><Code>10016</Code><Msg>Campo CbteFch invalido</Msg></Err></Errors>` +
		`</FECAEDetResponse></FeDetResp>` +
		`</FECAESolicitarResult></FECAESolicitarResponse></Body></Envelope>`)

	result, err := ParseCAEResponse(body)
	require.NoError(t, err)

	assert.False(t, result.Approved)
	assert.Empty(t, result.CAE)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "[10016] Campo CbteFch invalido", result.Errors[0])
	require.Len(t, result.Observations, 1)
	assert.Equal(t, "[10192] CUIT del receptor no registrado", result.Observations[0])
}

func TestParseCAEResponseRechazadoSinDetalle(t *testing.T) {
	body := []byte(`<Envelope><Body><FECAESolicitarResponse><FECAESolicitarResult>` +
		`<FeCabResp><Resultado>R</Resultado></FeCabResp>` +
		`</FECAESolicitarResult></FECAESolicitarResponse></Body></Envelope>`)

	result, err := ParseCAEResponse(body)
	require.NoError(t, err)

	assert.False(t, result.Approved)
	require.NotEmpty(t, result.Errors, "un rechazo sin detalle sintetiza un mensaje")
	assert.Contains(t, result.Errors[0], "sin detalle")
}

func TestParseSoapFault(t *testing.T) {
	body := []byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>` +
		`<soapenv:Fault><faultcode>ns1:coe.alreadyAuthenticated</faultcode>` +
		`<faultstring>El CEE ya posee un TA valido para el acceso al WSN solicitado</faultstring>` +
		`</soapenv:Fault></soapenv:Body></soapenv:Envelope>`)

	fault := ParseSoapFault(body)
	assert.Equal(t, "El CEE ya posee un TA valido para el acceso al WSN solicitado", fault)
}

func TestParseSoapFaultNuncaFalla(t *testing.T) {
	assert.Equal(t, "error SOAP sin detalle", ParseSoapFault([]byte("esto no es XML")))
	assert.Equal(t, "error SOAP sin detalle", ParseSoapFault(nil))
	assert.Equal(t, "error SOAP sin detalle", ParseSoapFault([]byte("<Envelope><Body/></Envelope>")))
}

func TestIsPhantomFault(t *testing.T) {
	assert.True(t, isPhantomFault("El CEE ya posee un TA valido para el acceso al WSN solicitado"))
	assert.True(t, isPhantomFault("El CEE YA POSEE UN TA VÁLIDO"))
	assert.False(t, isPhantomFault("Certificado expirado"))
}
