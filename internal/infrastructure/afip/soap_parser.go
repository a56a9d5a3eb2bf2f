package afip

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// Los parsers buscan elementos por nombre local, ignorando el prefijo de
// namespace: AFIP devuelve los mismos documentos con prefijos distintos
// según el ambiente (soapenv:, soap:, ns1:, sin prefijo).

// findDeep busca el primer elemento con el nombre local dado, en profundidad.
func findDeep(el *etree.Element, local string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == local {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findDeep(child, local); found != nil {
			return found
		}
	}
	return nil
}

func textOf(el *etree.Element, local string) string {
	if found := findDeep(el, local); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

// ── LoginCms (WSAA) ────────────────────────────────────────────────────────────

// Layouts de expirationTime observados en respuestas WSAA.
var wsaaTimeLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseLoginCmsResponse extrae token, sign y expiración de la respuesta de
// loginCms. El loginTicketResponse viaja como texto XML-escapado dentro de
// loginCmsReturn, por eso se parsea dos veces.
func ParseLoginCmsResponse(body []byte) (*entity.AuthToken, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("wsaa: respuesta no parseable: %w", err)
	}
	ret := findDeep(doc.Root(), "loginCmsReturn")
	if ret == nil {
		return nil, fmt.Errorf("wsaa: respuesta sin loginCmsReturn")
	}

	inner := etree.NewDocument()
	if err := inner.ReadFromString(ret.Text()); err != nil {
		return nil, fmt.Errorf("wsaa: credentials no parseables: %w", err)
	}
	root := inner.Root()

	token := textOf(root, "token")
	sign := textOf(root, "sign")
	if token == "" || sign == "" {
		return nil, fmt.Errorf("wsaa: respuesta sin token o sign")
	}

	expStr := textOf(root, "expirationTime")
	exp, err := parseWsaaTime(expStr)
	if err != nil {
		return nil, err
	}

	return &entity.AuthToken{Token: token, Sign: sign, ExpirationTime: exp}, nil
}

func parseWsaaTime(s string) (time.Time, error) {
	for _, layout := range wsaaTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("wsaa: expirationTime inválido %q", s)
}

// ── FECompUltimoAutorizado (WSFE) ──────────────────────────────────────────────

// ParseLastAuthorizedResponse extrae CbteNro de FECompUltimoAutorizado.
func ParseLastAuthorizedResponse(body []byte) (int64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return 0, fmt.Errorf("wsfe: respuesta no parseable: %w", err)
	}
	root := doc.Root()

	result := findDeep(root, "FECompUltimoAutorizadoResult")
	if result == nil {
		return 0, fmt.Errorf("wsfe: respuesta sin FECompUltimoAutorizadoResult")
	}
	if errs := collectMessages(result, "Errors", "Err"); len(errs) > 0 {
		return 0, fmt.Errorf("wsfe: %s", strings.Join(errs, "; "))
	}

	nroStr := textOf(result, "CbteNro")
	nro, err := strconv.ParseInt(nroStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wsfe: CbteNro inválido %q", nroStr)
	}
	return nro, nil
}

// ── FECAESolicitar (WSFE) ──────────────────────────────────────────────────────

// CAEResult es el resultado tipado de una solicitud de CAE.
type CAEResult struct {
	Approved      bool
	CAE           string
	CAEExpiration time.Time
	InvoiceNumber int64
	Observations  []string
	Errors        []string
	Raw           string // XML crudo para auditoría
	Simulated     bool
}

// ParseCAEResponse interpreta la respuesta de FECAESolicitar.
// Aprobado cuando Resultado == "A"; en rechazos se prefieren los errores de
// detalle (con prefijo [código]) y si no hay detalle se sintetiza un mensaje.
func ParseCAEResponse(body []byte) (*CAEResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("wsfe: respuesta no parseable: %w", err)
	}
	root := doc.Root()

	result := findDeep(root, "FECAESolicitarResult")
	if result == nil {
		return nil, fmt.Errorf("wsfe: respuesta sin FECAESolicitarResult")
	}

	out := &CAEResult{Raw: string(body)}

	cab := findDeep(result, "FeCabResp")
	resultado := textOf(cab, "Resultado")
	out.Approved = resultado == "A"

	det := findDeep(result, "FECAEDetResponse")
	if det != nil {
		out.CAE = textOf(det, "CAE")
		if nro, err := strconv.ParseInt(textOf(det, "CbteDesde"), 10, 64); err == nil {
			out.InvoiceNumber = nro
		}
		if vto := textOf(det, "CAEFchVto"); vto != "" {
			if t, err := parseCompactDate(vto); err == nil {
				out.CAEExpiration = t
			}
		}
		out.Observations = collectMessages(det, "Observaciones", "Obs")
		out.Errors = append(out.Errors, collectMessages(det, "Errors", "Err")...)
	}
	// Errores a nivel respuesta (fuera del detalle)
	if topErrs := collectMessages(result, "Errors", "Err"); len(topErrs) > 0 {
		out.Errors = append(out.Errors, topErrs...)
	}

	if !out.Approved && len(out.Errors) == 0 {
		if len(out.Observations) > 0 {
			out.Errors = append(out.Errors, out.Observations...)
		} else {
			out.Errors = append(out.Errors, "AFIP rechazó el comprobante sin detalle de errores")
		}
	}
	return out, nil
}

func parseCompactDate(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// collectMessages junta los mensajes de un contenedor de errores u
// observaciones WSFE (<Errors><Err><Code/><Msg/></Err></Errors>).
func collectMessages(el *etree.Element, container, item string) []string {
	cont := findDeep(el, container)
	if cont == nil {
		return nil
	}
	var msgs []string
	for _, child := range cont.ChildElements() {
		if child.Tag != item {
			continue
		}
		code := textOf(child, "Code")
		msg := textOf(child, "Msg")
		if msg == "" {
			continue
		}
		if code != "" {
			msgs = append(msgs, "["+code+"] "+msg)
		} else {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// ── SOAP Fault ─────────────────────────────────────────────────────────────────

// ParseSoapFault extrae el faultstring de un SOAP Fault. Nunca falla: si el
// cuerpo no es parseable devuelve un mensaje genérico, porque se invoca en
// caminos de error donde un segundo error solo taparía al primero.
func ParseSoapFault(body []byte) string {
	const generic = "error SOAP sin detalle"
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return generic
	}
	fault := findDeep(doc.Root(), "Fault")
	if fault == nil {
		return generic
	}
	if fs := textOf(fault, "faultstring"); fs != "" {
		return fs
	}
	return generic
}
