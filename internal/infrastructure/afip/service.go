package afip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tu-usuario/facturador-afip/internal/domain"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

// Gateway es la fachada WSFE: resuelve el ticket WSAA, consulta el último
// comprobante autorizado, solicita CAE y genera autorizaciones simuladas
// cuando el emisor no está listo para facturar de verdad.
type Gateway struct {
	caller SOAPCaller
	tokens *TokenManager
	log    *logger.Logger
	now    func() time.Time
}

// NewGateway construye la fachada.
func NewGateway(caller SOAPCaller, tokens *TokenManager, log *logger.Logger) *Gateway {
	return &Gateway{caller: caller, tokens: tokens, log: log, now: time.Now}
}

// LastAuthorized consulta FECompUltimoAutorizado para el punto de venta y
// tipo de comprobante.
func (g *Gateway) LastAuthorized(ctx context.Context, env entity.Environment, cuit string, pointOfSale, invoiceType int) (int64, error) {
	token, err := g.tokens.GetToken(ctx, env)
	if err != nil {
		return 0, err
	}
	auth := Auth{Token: token.Token, Sign: token.Sign, CUIT: cuit}
	body, err := g.call(ctx, env, "FECompUltimoAutorizado", BuildLastAuthorizedRequest(auth, pointOfSale, invoiceType))
	if err != nil {
		return 0, err
	}
	return ParseLastAuthorizedResponse(body)
}

// Authorize ejecuta el ciclo completo de autorización real: ticket, último
// número autorizado, número siguiente y FECAESolicitar. El resultado trae
// aprobación o rechazo tipado; los errores de retorno son de comunicación,
// autenticación o parseo, nunca rechazos.
func (g *Gateway) Authorize(ctx context.Context, env entity.Environment, cuit string, req CAERequest) (*CAEResult, error) {
	token, err := g.tokens.GetToken(ctx, env)
	if err != nil {
		return nil, err
	}
	auth := Auth{Token: token.Token, Sign: token.Sign, CUIT: cuit}

	last, err := g.LastAuthorized(ctx, env, cuit, req.PointOfSale, req.InvoiceType)
	if err != nil {
		return nil, err
	}
	req.InvoiceNumber = last + 1

	g.log.Info().
		Str("env", string(env)).
		Int("ptoVta", req.PointOfSale).
		Int("cbteTipo", req.InvoiceType).
		Int64("cbteNro", req.InvoiceNumber).
		Msg("solicitando CAE")

	body, err := g.call(ctx, env, "FECAESolicitar", BuildCAERequest(auth, req))
	if err != nil {
		return nil, err
	}
	result, err := ParseCAEResponse(body)
	if err != nil {
		return nil, err
	}
	if result.InvoiceNumber == 0 {
		result.InvoiceNumber = req.InvoiceNumber
	}
	return result, nil
}

// Simulate produce una autorización local cuando la configuración fiscal no
// está completa: CAE sintético de 14 dígitos desde el reloj, vencimiento a
// 10 días y una observación que lo marca como no fiscal.
func (g *Gateway) Simulate(req CAERequest) *CAEResult {
	now := g.now()
	millis := now.UnixMilli()

	caeDigits := fmt.Sprintf("%014d", millis)
	if len(caeDigits) > 14 {
		caeDigits = caeDigits[len(caeDigits)-14:]
	}

	return &CAEResult{
		Approved:      true,
		Simulated:     true,
		CAE:           caeDigits,
		CAEExpiration: now.AddDate(0, 0, 10),
		InvoiceNumber: millis % 100000000,
		Observations:  []string{"[SIMULACIÓN] Este CAE no es válido fiscalmente"},
	}
}

// TestConnection verifica autenticación y acceso a WSFE consultando el
// último comprobante B autorizado. Devuelve un mensaje apto para mostrar.
func (g *Gateway) TestConnection(ctx context.Context, env entity.Environment, cuit string, pointOfSale int) (bool, string) {
	last, err := g.LastAuthorized(ctx, env, cuit, pointOfSale, 6)
	if err != nil {
		var phantom *domain.PhantomTokenError
		if errors.As(err, &phantom) {
			return false, phantom.Error()
		}
		return false, fmt.Sprintf("sin conexión con AFIP (%s): %v", env, err)
	}
	return true, fmt.Sprintf("conexión con AFIP (%s) OK; último comprobante B del punto de venta %d: %d", env, pointOfSale, last)
}

// InvalidateToken descarta el ticket WSAA del ambiente.
func (g *Gateway) InvalidateToken(env entity.Environment) error {
	return g.tokens.InvalidateToken(env)
}

// PhantomCooldown expone el estado del cooldown fantasma del ambiente.
func (g *Gateway) PhantomCooldown(env entity.Environment) PhantomStatus {
	return g.tokens.PhantomCooldown(env)
}

// call hace el POST a WSFE y normaliza los errores HTTP en errores de dominio.
func (g *Gateway) call(ctx context.Context, env entity.Environment, operation string, body []byte) ([]byte, error) {
	respBody, err := g.caller.Call(ctx, WsfeURL(env), wsfeActionBase+operation, body)
	if err != nil {
		var httpErr *HTTPStatusError
		if errors.As(err, &httpErr) {
			fault := ParseSoapFault(httpErr.Body)
			return nil, &domain.CommunicationError{Operation: operation, Err: errors.New(fault)}
		}
		return nil, &domain.CommunicationError{Operation: operation, Err: err}
	}
	return respBody, nil
}
