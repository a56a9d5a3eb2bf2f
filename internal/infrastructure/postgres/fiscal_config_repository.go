package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/internal/domain/repository"
	infraafip "github.com/tu-usuario/facturador-afip/internal/infrastructure/afip"
)

var (
	_ repository.FiscalConfigRepository = (*FiscalConfigRepo)(nil)
	_ infraafip.TokenStore              = (*FiscalConfigRepo)(nil)
	_ infraafip.CertificateSource       = (*FiscalConfigRepo)(nil)
)

// FiscalConfigRepo persiste la configuración fiscal del emisor (fila única).
// Además implementa los puertos TokenStore y CertificateSource del
// administrador de tickets WSAA, que viven en las mismas columnas.
type FiscalConfigRepo struct {
	q Querier
}

// NewFiscalConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalConfigRepository(q Querier) *FiscalConfigRepo {
	return &FiscalConfigRepo{q: q}
}

// envColumn devuelve el prefijo de columnas del ambiente ("homo" o "prod").
// Los nombres se interpolan solo desde este par fijo, nunca desde entrada.
func envColumn(env entity.Environment) string {
	if env == entity.EnvProduccion {
		return "prod"
	}
	return "homo"
}

// Get devuelve la configuración fiscal (nil, nil si aún no se configuró).
func (r *FiscalConfigRepo) Get() (*entity.FiscalConfig, error) {
	query := `
		SELECT id, cuit, business_name, iva_condition, point_of_sale, active_environment,
		       COALESCE(homo_cert_pem, ''), COALESCE(homo_key_pem, ''),
		       COALESCE(homo_token, ''), COALESCE(homo_sign, ''), homo_token_expires_at, homo_phantom_at,
		       COALESCE(prod_cert_pem, ''), COALESCE(prod_key_pem, ''),
		       COALESCE(prod_token, ''), COALESCE(prod_sign, ''), prod_token_expires_at, prod_phantom_at,
		       created_at, updated_at
		FROM fiscal_config LIMIT 1`

	var c entity.FiscalConfig
	var ivaCond, activeEnv string
	var homoTokenExp, homoPhantom, prodTokenExp, prodPhantom *time.Time
	err := r.q.QueryRow(context.Background(), query).Scan(
		&c.ID, &c.CUIT, &c.BusinessName, &ivaCond, &c.PointOfSale, &activeEnv,
		&c.Homologacion.CertPEM, &c.Homologacion.KeyPEM,
		&c.Homologacion.Token, &c.Homologacion.Sign, &homoTokenExp, &homoPhantom,
		&c.Produccion.CertPEM, &c.Produccion.KeyPEM,
		&c.Produccion.Token, &c.Produccion.Sign, &prodTokenExp, &prodPhantom,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal config: %w", err)
	}
	c.IvaCondition = entity.IvaCondition(ivaCond)
	c.ActiveEnvironment = entity.Environment(activeEnv)
	if homoTokenExp != nil {
		c.Homologacion.TokenExpiresAt = *homoTokenExp
	}
	if homoPhantom != nil {
		c.Homologacion.PhantomAt = *homoPhantom
	}
	if prodTokenExp != nil {
		c.Produccion.TokenExpiresAt = *prodTokenExp
	}
	if prodPhantom != nil {
		c.Produccion.PhantomAt = *prodPhantom
	}
	return &c, nil
}

// Save crea o actualiza la fila única de configuración.
func (r *FiscalConfigRepo) Save(cfg *entity.FiscalConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO fiscal_config (id, cuit, business_name, iva_condition, point_of_sale, active_environment,
		                           homo_cert_pem, homo_key_pem, prod_cert_pem, prod_key_pem,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET cuit = $2, business_name = $3, iva_condition = $4, point_of_sale = $5,
		    active_environment = $6,
		    homo_cert_pem = $7, homo_key_pem = $8,
		    prod_cert_pem = $9, prod_key_pem = $10,
		    updated_at = $12`
	_, err := r.q.Exec(context.Background(), query,
		cfg.ID, cfg.CUIT, cfg.BusinessName, string(cfg.IvaCondition), cfg.PointOfSale, string(cfg.ActiveEnvironment),
		nullIfEmpty(cfg.Homologacion.CertPEM), nullIfEmpty(cfg.Homologacion.KeyPEM),
		nullIfEmpty(cfg.Produccion.CertPEM), nullIfEmpty(cfg.Produccion.KeyPEM),
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save fiscal config: %w", err)
	}
	return nil
}

// SaveToken espeja el ticket WSAA del ambiente.
func (r *FiscalConfigRepo) SaveToken(env entity.Environment, t *entity.AuthToken) error {
	col := envColumn(env)
	query := fmt.Sprintf(`
		UPDATE fiscal_config
		SET %s_token = $1, %s_sign = $2, %s_token_expires_at = $3, updated_at = $4`,
		col, col, col)
	_, err := r.q.Exec(context.Background(), query, t.Token, t.Sign, t.ExpirationTime, time.Now())
	if err != nil {
		return fmt.Errorf("save wsaa token: %w", err)
	}
	return nil
}

// ClearToken borra el ticket espejado del ambiente.
func (r *FiscalConfigRepo) ClearToken(env entity.Environment) error {
	col := envColumn(env)
	query := fmt.Sprintf(`
		UPDATE fiscal_config
		SET %s_token = NULL, %s_sign = NULL, %s_token_expires_at = NULL, updated_at = $1`,
		col, col, col)
	_, err := r.q.Exec(context.Background(), query, time.Now())
	if err != nil {
		return fmt.Errorf("clear wsaa token: %w", err)
	}
	return nil
}

// SavePhantomAt registra el cooldown fantasma (zero time lo limpia).
func (r *FiscalConfigRepo) SavePhantomAt(env entity.Environment, at time.Time) error {
	col := envColumn(env)
	query := fmt.Sprintf(`UPDATE fiscal_config SET %s_phantom_at = $1, updated_at = $2`, col)
	_, err := r.q.Exec(context.Background(), query, nullIfZeroTime(at), time.Now())
	if err != nil {
		return fmt.Errorf("save phantom cooldown: %w", err)
	}
	return nil
}

// ── Puertos del TokenManager ───────────────────────────────────────────────────

// LoadToken devuelve el ticket espejado del ambiente (nil, nil si no hay).
func (r *FiscalConfigRepo) LoadToken(env entity.Environment) (*entity.AuthToken, error) {
	cfg, err := r.Get()
	if err != nil || cfg == nil {
		return nil, err
	}
	creds := cfg.CredentialsFor(env)
	if creds.Token == "" || creds.Sign == "" || creds.TokenExpiresAt.IsZero() {
		return nil, nil
	}
	return &entity.AuthToken{
		Token:          creds.Token,
		Sign:           creds.Sign,
		ExpirationTime: creds.TokenExpiresAt,
	}, nil
}

// LoadPhantomAt devuelve el inicio del cooldown fantasma (zero si no hay).
func (r *FiscalConfigRepo) LoadPhantomAt(env entity.Environment) (time.Time, error) {
	cfg, err := r.Get()
	if err != nil || cfg == nil {
		return time.Time{}, err
	}
	return cfg.CredentialsFor(env).PhantomAt, nil
}

// Credentials devuelve certificado y llave PEM del ambiente.
func (r *FiscalConfigRepo) Credentials(env entity.Environment) (string, string, error) {
	cfg, err := r.Get()
	if err != nil {
		return "", "", err
	}
	if cfg == nil {
		return "", "", nil
	}
	creds := cfg.CredentialsFor(env)
	return creds.CertPEM, creds.KeyPEM, nil
}
