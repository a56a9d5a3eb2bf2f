package entity

import "time"

// Environment identifica el ambiente AFIP activo.
type Environment string

const (
	EnvHomologacion Environment = "homologacion"
	EnvProduccion   Environment = "produccion"
)

// Valid reporta si el valor es un ambiente conocido.
func (e Environment) Valid() bool {
	return e == EnvHomologacion || e == EnvProduccion
}

// Condiciones frente al IVA (emisor y receptor).
type IvaCondition string

const (
	IvaResponsableInscripto IvaCondition = "RESPONSABLE_INSCRIPTO"
	IvaMonotributo          IvaCondition = "MONOTRIBUTO"
	IvaExento               IvaCondition = "EXENTO"
	IvaConsumidorFinal      IvaCondition = "CONSUMIDOR_FINAL"
)

// AuthToken es un ticket de acceso WSAA vigente (token + sign).
type AuthToken struct {
	Token          string
	Sign           string
	ExpirationTime time.Time
}

// Expired reporta si el ticket ya no sirve al instante dado. Se considera
// vencido cuando faltan menos de 10 minutos, para no autorizar con un
// ticket que muere en vuelo.
func (t *AuthToken) Expired(now time.Time) bool {
	return t == nil || now.Add(10*time.Minute).After(t.ExpirationTime)
}

// EnvCredentials agrupa certificado, llave y ticket persistido de un ambiente.
type EnvCredentials struct {
	CertPEM string // certificado X.509 en PEM
	KeyPEM  string // llave privada en PEM

	// Espejo durable del último ticket WSAA obtenido
	Token          string
	Sign           string
	TokenExpiresAt time.Time

	// Timestamp del último fault "ya posee un TA válido" (cooldown fantasma)
	PhantomAt time.Time
}

// FiscalConfig es la configuración fiscal del emisor (fila única).
type FiscalConfig struct {
	ID                string
	CUIT              string
	BusinessName      string
	IvaCondition      IvaCondition
	PointOfSale       int
	ActiveEnvironment Environment

	Homologacion EnvCredentials
	Produccion   EnvCredentials

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveCredentials devuelve las credenciales del ambiente activo.
func (c *FiscalConfig) ActiveCredentials() *EnvCredentials {
	if c.ActiveEnvironment == EnvProduccion {
		return &c.Produccion
	}
	return &c.Homologacion
}

// CredentialsFor devuelve las credenciales del ambiente pedido.
func (c *FiscalConfig) CredentialsFor(env Environment) *EnvCredentials {
	if env == EnvProduccion {
		return &c.Produccion
	}
	return &c.Homologacion
}

// MissingFields lista qué falta para poder facturar de verdad.
// Vacío = listo para autorizar contra AFIP.
func (c *FiscalConfig) MissingFields() []string {
	var missing []string
	if c.CUIT == "" {
		missing = append(missing, "cuit")
	}
	if c.BusinessName == "" {
		missing = append(missing, "razón social")
	}
	if c.IvaCondition == "" {
		missing = append(missing, "condición IVA")
	}
	if c.PointOfSale <= 0 {
		missing = append(missing, "punto de venta")
	}
	creds := c.ActiveCredentials()
	if creds.CertPEM == "" {
		missing = append(missing, "certificado "+string(c.ActiveEnvironment))
	}
	if creds.KeyPEM == "" {
		missing = append(missing, "llave privada "+string(c.ActiveEnvironment))
	}
	return missing
}

// ReadyForInvoicing reporta si se puede autorizar contra AFIP; si no,
// el flujo cae a modo simulación.
func (c *FiscalConfig) ReadyForInvoicing() bool {
	return len(c.MissingFields()) == 0
}

// FiscalProfile es el snapshot inmutable del emisor que viaja en cada intento.
type FiscalProfile struct {
	CUIT         string
	BusinessName string
	IvaCondition IvaCondition
	PointOfSale  int
	Environment  Environment
}

// Profile arma el snapshot del emisor desde la configuración vigente.
func (c *FiscalConfig) Profile() FiscalProfile {
	return FiscalProfile{
		CUIT:         c.CUIT,
		BusinessName: c.BusinessName,
		IvaCondition: c.IvaCondition,
		PointOfSale:  c.PointOfSale,
		Environment:  c.ActiveEnvironment,
	}
}
