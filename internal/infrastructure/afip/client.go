// Package afip implementa la integración con los web services de AFIP:
// autenticación WSAA (LoginCms sobre un TRA firmado CMS) y facturación
// WSFEv1 (último comprobante autorizado y solicitud de CAE).
package afip

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// ── Endpoints por ambiente ─────────────────────────────────────────────────────

const (
	wsaaURLHomo = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	wsaaURLProd = "https://wsaa.afip.gov.ar/ws/services/LoginCms"

	wsfeURLHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"

	// SOAPAction base de las operaciones WSFEv1.
	wsfeActionBase = "http://ar.gov.afip.dif.FEV1/"
)

// WsaaURL devuelve el endpoint WSAA del ambiente.
func WsaaURL(env entity.Environment) string {
	if env == entity.EnvProduccion {
		return wsaaURLProd
	}
	return wsaaURLHomo
}

// WsfeURL devuelve el endpoint WSFEv1 del ambiente.
func WsfeURL(env entity.Environment) string {
	if env == entity.EnvProduccion {
		return wsfeURLProd
	}
	return wsfeURLHomo
}

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SOAPCaller define el puerto de salida HTTP hacia AFIP.
// La implementación concreta usa net/http; para tests se inyecta un fake.
type SOAPCaller interface {
	// Call hace un POST SOAP 1.1 y devuelve el cuerpo de la respuesta.
	// Un status HTTP no-2xx se devuelve como *HTTPStatusError con el cuerpo
	// adentro: AFIP responde los SOAP Fault con HTTP 500 y el detalle del
	// fault es información que el llamador necesita.
	Call(ctx context.Context, url, soapAction string, body []byte) ([]byte, error)
}

// HTTPStatusError es una respuesta HTTP no exitosa con su cuerpo.
type HTTPStatusError struct {
	Status int
	Body   []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("respuesta HTTP %d de AFIP", e.Status)
}

// ── Implementación ─────────────────────────────────────────────────────────────

// SOAPClient implementa SOAPCaller contra los servidores de AFIP.
type SOAPClient struct {
	httpClient *http.Client
}

// NewSOAPClient construye el cliente con timeout de 30 s y una configuración
// TLS tolerante: los servidores de AFIP todavía negocian versiones y suites
// que las políticas por defecto de Go rechazan.
func NewSOAPClient() *SOAPClient {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS10,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_RSA_WITH_AES_128_CBC_SHA,
				tls.TLS_RSA_WITH_AES_256_CBC_SHA,
			},
		},
	}
	return &SOAPClient{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Call hace el POST SOAP y devuelve el cuerpo (máx 1 MB).
func (c *SOAPClient) Call(ctx context.Context, url, soapAction string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Status: resp.StatusCode, Body: rawBody}
	}
	return rawBody, nil
}

var _ SOAPCaller = (*SOAPClient)(nil)
