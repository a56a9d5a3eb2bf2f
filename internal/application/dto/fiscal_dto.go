package dto

// UpdateFiscalConfigRequest body para PUT /api/fiscal-config.
type UpdateFiscalConfigRequest struct {
	CUIT              string `json:"cuit" validate:"required,len=11,numeric"`
	BusinessName      string `json:"business_name" validate:"required,max=200"`
	IvaCondition      string `json:"iva_condition" validate:"required"`
	PointOfSale       int    `json:"point_of_sale" validate:"required,min=1"`
	ActiveEnvironment string `json:"active_environment" validate:"required,oneof=homologacion produccion"`
}

// UploadCertificatesRequest body para POST /api/fiscal-config/certificates.
// Se acepta el par PEM directo o un PKCS#12 en base64 con su password.
type UploadCertificatesRequest struct {
	Environment string `json:"environment" validate:"required,oneof=homologacion produccion"`
	CertPEM     string `json:"cert_pem,omitempty"`
	KeyPEM      string `json:"key_pem,omitempty"`
	P12Base64   string `json:"p12_base64,omitempty"`
	P12Password string `json:"p12_password,omitempty"`
}

// EnvCredentialsStatus estado de las credenciales de un ambiente (nunca expone
// la llave privada ni el ticket).
type EnvCredentialsStatus struct {
	HasCertificate bool   `json:"has_certificate"`
	HasPrivateKey  bool   `json:"has_private_key"`
	HasToken       bool   `json:"has_token"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"`
}

// FiscalConfigResponse configuración fiscal del emisor.
type FiscalConfigResponse struct {
	CUIT              string               `json:"cuit"`
	BusinessName      string               `json:"business_name"`
	IvaCondition      string               `json:"iva_condition"`
	PointOfSale       int                  `json:"point_of_sale"`
	ActiveEnvironment string               `json:"active_environment"`
	Homologacion      EnvCredentialsStatus `json:"homologacion"`
	Produccion        EnvCredentialsStatus `json:"produccion"`
}

// ReadinessResponse reporta si el emisor puede facturar de verdad; si no,
// lista qué falta y el flujo de emisión cae a modo simulación.
type ReadinessResponse struct {
	Ready         bool     `json:"ready"`
	MissingFields []string `json:"missing_fields"`
	Environment   string   `json:"environment"`
}
