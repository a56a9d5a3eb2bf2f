package billing

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/tu-usuario/facturador-afip/internal/application/dto"
	"github.com/tu-usuario/facturador-afip/internal/domain"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/internal/domain/repository"
	infraafip "github.com/tu-usuario/facturador-afip/internal/infrastructure/afip"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

// FiscalConfigUseCase administra la configuración fiscal del emisor: datos
// impositivos, certificados por ambiente y el reporte de preparación para
// facturar.
type FiscalConfigUseCase struct {
	repo    repository.FiscalConfigRepository
	gateway AfipGateway
	log     *logger.Logger
	now     func() time.Time
}

// NewFiscalConfigUseCase construye el caso de uso de configuración fiscal.
func NewFiscalConfigUseCase(repo repository.FiscalConfigRepository, gateway AfipGateway, log *logger.Logger) *FiscalConfigUseCase {
	return &FiscalConfigUseCase{repo: repo, gateway: gateway, log: log, now: time.Now}
}

// Get devuelve la configuración vigente. Sin configurar devuelve el esqueleto
// con homologación activa, nunca 404: el frontend siempre tiene algo que
// mostrar.
func (uc *FiscalConfigUseCase) Get() (*dto.FiscalConfigResponse, error) {
	cfg, err := uc.repo.Get()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &entity.FiscalConfig{ActiveEnvironment: entity.EnvHomologacion}
	}
	return toFiscalConfigResponse(cfg), nil
}

// Update guarda los datos impositivos del emisor. Certificados y tickets no
// se tocan por acá.
func (uc *FiscalConfigUseCase) Update(in dto.UpdateFiscalConfigRequest) (*dto.FiscalConfigResponse, error) {
	if len(onlyDigits(in.CUIT)) != 11 {
		return nil, fmt.Errorf("%w: CUIT debe tener 11 dígitos", domain.ErrInvalidInput)
	}
	if in.BusinessName == "" {
		return nil, fmt.Errorf("%w: razón social requerida", domain.ErrInvalidInput)
	}
	cond := entity.IvaCondition(in.IvaCondition)
	switch cond {
	case entity.IvaResponsableInscripto, entity.IvaMonotributo, entity.IvaExento, entity.IvaConsumidorFinal:
	default:
		return nil, fmt.Errorf("%w: condición IVA desconocida %q", domain.ErrInvalidInput, in.IvaCondition)
	}
	env := entity.Environment(in.ActiveEnvironment)
	if !env.Valid() {
		return nil, fmt.Errorf("%w: ambiente desconocido %q", domain.ErrInvalidInput, in.ActiveEnvironment)
	}
	if in.PointOfSale <= 0 {
		return nil, fmt.Errorf("%w: punto de venta debe ser positivo", domain.ErrInvalidInput)
	}

	cfg, err := uc.repo.Get()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if cfg == nil {
		cfg = &entity.FiscalConfig{CreatedAt: now}
	}
	cfg.CUIT = onlyDigits(in.CUIT)
	cfg.BusinessName = in.BusinessName
	cfg.IvaCondition = cond
	cfg.PointOfSale = in.PointOfSale
	cfg.ActiveEnvironment = env
	cfg.UpdatedAt = now

	if err := uc.repo.Save(cfg); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("cuit", cfg.CUIT).
		Str("env", string(env)).
		Int("ptoVta", cfg.PointOfSale).
		Msg("configuración fiscal actualizada")
	return toFiscalConfigResponse(cfg), nil
}

// UploadCertificates instala el par certificado/llave de un ambiente, desde
// PEM directo o desde un PKCS#12 en base64. Cambiar el certificado descarta
// el ticket WSAA del ambiente: un ticket emitido con el certificado viejo
// deja de servir.
func (uc *FiscalConfigUseCase) UploadCertificates(in dto.UploadCertificatesRequest) (*dto.FiscalConfigResponse, error) {
	env := entity.Environment(in.Environment)
	if !env.Valid() {
		return nil, fmt.Errorf("%w: ambiente desconocido %q", domain.ErrInvalidInput, in.Environment)
	}

	certPEM, keyPEM := in.CertPEM, in.KeyPEM
	if in.P12Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(in.P12Base64)
		if err != nil {
			return nil, fmt.Errorf("%w: p12_base64 no es base64 válido", domain.ErrInvalidInput)
		}
		certPEM, keyPEM, err = infraafip.ConvertP12(data, in.P12Password)
		if err != nil {
			return nil, fmt.Errorf("%w: no se pudo abrir el PKCS#12: %v", domain.ErrInvalidInput, err)
		}
	}
	if certPEM == "" || keyPEM == "" {
		return nil, fmt.Errorf("%w: se requiere el par certificado/llave (PEM o PKCS#12)", domain.ErrInvalidInput)
	}
	if _, err := infraafip.ParseCertPEM(certPEM); err != nil {
		return nil, fmt.Errorf("%w: certificado inválido: %v", domain.ErrInvalidInput, err)
	}
	if _, err := infraafip.ParseKeyPEM(keyPEM); err != nil {
		return nil, fmt.Errorf("%w: llave privada inválida: %v", domain.ErrInvalidInput, err)
	}

	cfg, err := uc.repo.Get()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if cfg == nil {
		cfg = &entity.FiscalConfig{ActiveEnvironment: entity.EnvHomologacion, CreatedAt: now}
	}
	creds := cfg.CredentialsFor(env)
	creds.CertPEM = certPEM
	creds.KeyPEM = keyPEM
	cfg.UpdatedAt = now

	if err := uc.repo.Save(cfg); err != nil {
		return nil, err
	}
	if err := uc.repo.ClearToken(env); err != nil {
		return nil, err
	}
	if err := uc.gateway.InvalidateToken(env); err != nil {
		uc.log.Warn().Err(err).Str("env", string(env)).Msg("no se pudo descartar el ticket en memoria")
	}
	uc.log.Info().Str("env", string(env)).Msg("certificados instalados; ticket WSAA descartado")
	return toFiscalConfigResponse(cfg), nil
}

// Readiness reporta si el emisor puede facturar contra AFIP y, si no, qué
// falta para eso.
func (uc *FiscalConfigUseCase) Readiness() (*dto.ReadinessResponse, error) {
	cfg, err := uc.repo.Get()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &entity.FiscalConfig{ActiveEnvironment: entity.EnvHomologacion}
	}
	missing := cfg.MissingFields()
	return &dto.ReadinessResponse{
		Ready:         len(missing) == 0,
		MissingFields: missing,
		Environment:   string(cfg.ActiveEnvironment),
	}, nil
}

func toFiscalConfigResponse(cfg *entity.FiscalConfig) *dto.FiscalConfigResponse {
	return &dto.FiscalConfigResponse{
		CUIT:              cfg.CUIT,
		BusinessName:      cfg.BusinessName,
		IvaCondition:      string(cfg.IvaCondition),
		PointOfSale:       cfg.PointOfSale,
		ActiveEnvironment: string(cfg.ActiveEnvironment),
		Homologacion:      toEnvStatus(&cfg.Homologacion),
		Produccion:        toEnvStatus(&cfg.Produccion),
	}
}

func toEnvStatus(creds *entity.EnvCredentials) dto.EnvCredentialsStatus {
	st := dto.EnvCredentialsStatus{
		HasCertificate: creds.CertPEM != "",
		HasPrivateKey:  creds.KeyPEM != "",
		HasToken:       creds.Token != "" && creds.Sign != "",
	}
	if st.HasToken && !creds.TokenExpiresAt.IsZero() {
		st.TokenExpiresAt = creds.TokenExpiresAt.Format(time.RFC3339)
	}
	return st
}
