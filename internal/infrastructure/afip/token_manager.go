package afip

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tu-usuario/facturador-afip/internal/domain"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

const (
	// wsaaService es el servicio que se pide en el TRA.
	wsaaService = "wsfe"
	// phantomCooldown es lo que tarda en morir un ticket que AFIP dice
	// tener vigente pero este sistema no conoce. No hay forma de
	// recuperarlo: solo esperar a que expire.
	phantomCooldown = 12 * time.Hour
)

// ── Puertos ────────────────────────────────────────────────────────────────────

// TokenStore espeja tickets y cooldowns en almacenamiento durable, para que
// un reinicio del proceso no dispare un LoginCms innecesario.
type TokenStore interface {
	// LoadToken devuelve el ticket espejado del ambiente (nil, nil si no hay).
	LoadToken(env entity.Environment) (*entity.AuthToken, error)
	SaveToken(env entity.Environment, t *entity.AuthToken) error
	ClearToken(env entity.Environment) error
	// LoadPhantomAt devuelve el timestamp del último fault fantasma
	// (zero time si no hay cooldown registrado).
	LoadPhantomAt(env entity.Environment) (time.Time, error)
	SavePhantomAt(env entity.Environment, at time.Time) error
}

// CertificateSource entrega el certificado y la llave del ambiente.
type CertificateSource interface {
	Credentials(env entity.Environment) (certPEM, keyPEM string, err error)
}

// PhantomStatus describe el cooldown por ticket fantasma de un ambiente.
type PhantomStatus struct {
	Environment entity.Environment `json:"environment"`
	Blocked     bool               `json:"blocked"`
	WaitMinutes int                `json:"waitMinutes"`
}

// ── TokenManager ───────────────────────────────────────────────────────────────

// TokenManager administra el ciclo de vida de los tickets WSAA por ambiente:
// caché en memoria, espejo durable, renovación vía LoginCms y cooldown por
// ticket fantasma.
type TokenManager struct {
	mu      sync.Mutex
	cache   map[entity.Environment]*entity.AuthToken
	phantom map[entity.Environment]time.Time

	store  TokenStore
	certs  CertificateSource
	caller SOAPCaller
	signer TRASigner
	log    *logger.Logger

	now func() time.Time // inyectable para tests
}

// NewTokenManager construye el administrador de tickets.
func NewTokenManager(store TokenStore, certs CertificateSource, caller SOAPCaller, signer TRASigner, log *logger.Logger) *TokenManager {
	return &TokenManager{
		cache:   make(map[entity.Environment]*entity.AuthToken),
		phantom: make(map[entity.Environment]time.Time),
		store:   store,
		certs:   certs,
		caller:  caller,
		signer:  signer,
		log:     log,
		now:     time.Now,
	}
}

// GetToken devuelve un ticket vigente para el ambiente, en este orden:
// caché en memoria, espejo durable, LoginCms. Si el ambiente está en cooldown
// fantasma no intenta LoginCms y devuelve PhantomTokenError.
//
// El mutex protege solo los mapas locales; la llamada remota corre sin lock.
// Dos GetToken concurrentes del mismo ambiente pueden duplicar el LoginCms:
// el perdedor cae en el camino fantasma y se recupera solo.
func (m *TokenManager) GetToken(ctx context.Context, env entity.Environment) (*entity.AuthToken, error) {
	m.mu.Lock()
	if t := m.cache[env]; !t.Expired(m.now()) {
		m.mu.Unlock()
		return t, nil
	}
	m.mu.Unlock()

	if t, err := m.store.LoadToken(env); err == nil && !t.Expired(m.now()) {
		m.mu.Lock()
		m.cache[env] = t
		m.mu.Unlock()
		m.log.Debug().Str("env", string(env)).Msg("ticket WSAA recuperado del espejo durable")
		return t, nil
	}

	if st := m.PhantomCooldown(env); st.Blocked {
		return nil, &domain.PhantomTokenError{Environment: string(env), WaitMinutes: st.WaitMinutes}
	}

	return m.login(ctx, env)
}

// login ejecuta el ciclo TRA → firma CMS → LoginCms y cachea el resultado.
func (m *TokenManager) login(ctx context.Context, env entity.Environment) (*entity.AuthToken, error) {
	certPEM, keyPEM, err := m.certs.Credentials(env)
	if err != nil {
		return nil, err
	}
	if certPEM == "" || keyPEM == "" {
		return nil, &domain.AuthenticationError{Reason: "certificado o llave no configurados para " + string(env)}
	}

	tra := BuildTRA(wsaaService, m.now())
	cms, err := m.signer.SignTRA(tra, certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	body, err := m.caller.Call(ctx, WsaaURL(env), "", BuildLoginCmsRequest(cms))
	if err != nil {
		var httpErr *HTTPStatusError
		if errors.As(err, &httpErr) {
			fault := ParseSoapFault(httpErr.Body)
			if isPhantomFault(fault) {
				return nil, m.recordPhantom(env)
			}
			return nil, &domain.AuthenticationError{Reason: fault}
		}
		return nil, &domain.CommunicationError{Operation: "loginCms", Err: err}
	}

	token, err := ParseLoginCmsResponse(body)
	if err != nil {
		return nil, &domain.AuthenticationError{Reason: err.Error()}
	}

	m.mu.Lock()
	m.cache[env] = token
	m.mu.Unlock()
	if err := m.store.SaveToken(env, token); err != nil {
		m.log.Warn().Err(err).Str("env", string(env)).Msg("no se pudo espejar el ticket WSAA")
	}
	m.log.Info().
		Str("env", string(env)).
		Time("expira", token.ExpirationTime).
		Msg("ticket WSAA obtenido")
	return token, nil
}

// recordPhantom limpia el ticket local y registra el inicio del cooldown.
// AFIP dice que ya hay un TA vigente que este sistema no guardó (proceso
// reiniciado sin espejo, otro cliente con el mismo certificado, o carrera
// entre dos LoginCms).
func (m *TokenManager) recordPhantom(env entity.Environment) error {
	now := m.now()
	m.mu.Lock()
	delete(m.cache, env)
	m.phantom[env] = now
	m.mu.Unlock()

	if err := m.store.ClearToken(env); err != nil {
		m.log.Warn().Err(err).Str("env", string(env)).Msg("no se pudo limpiar el ticket espejado")
	}
	if err := m.store.SavePhantomAt(env, now); err != nil {
		m.log.Warn().Err(err).Str("env", string(env)).Msg("no se pudo persistir el cooldown fantasma")
	}
	m.log.Warn().Str("env", string(env)).Msg("AFIP reporta ticket vigente no registrado; ambiente en cooldown")

	return &domain.PhantomTokenError{
		Environment: string(env),
		WaitMinutes: int(phantomCooldown.Minutes()),
	}
}

// PhantomCooldown consulta el estado del cooldown del ambiente. Un cooldown
// ya vencido se limpia en la misma lectura.
func (m *TokenManager) PhantomCooldown(env entity.Environment) PhantomStatus {
	m.mu.Lock()
	at, ok := m.phantom[env]
	m.mu.Unlock()

	if !ok || at.IsZero() {
		stored, err := m.store.LoadPhantomAt(env)
		if err != nil || stored.IsZero() {
			return PhantomStatus{Environment: env}
		}
		at = stored
		m.mu.Lock()
		m.phantom[env] = at
		m.mu.Unlock()
	}

	remaining := at.Add(phantomCooldown).Sub(m.now())
	if remaining <= 0 {
		m.mu.Lock()
		delete(m.phantom, env)
		m.mu.Unlock()
		if err := m.store.SavePhantomAt(env, time.Time{}); err != nil {
			m.log.Warn().Err(err).Str("env", string(env)).Msg("no se pudo limpiar el cooldown fantasma")
		}
		return PhantomStatus{Environment: env}
	}

	return PhantomStatus{
		Environment: env,
		Blocked:     true,
		WaitMinutes: int(math.Ceil(remaining.Minutes())),
	}
}

// InvalidateToken descarta el ticket del ambiente (caché y espejo). El
// próximo intento de facturación pedirá uno nuevo.
func (m *TokenManager) InvalidateToken(env entity.Environment) error {
	m.mu.Lock()
	delete(m.cache, env)
	m.mu.Unlock()
	return m.store.ClearToken(env)
}

// isPhantomFault detecta el fault "El CEE ya posee un TA valido para el
// acceso al WSN solicitado". AFIP lo escribe con y sin tilde según el nodo.
func isPhantomFault(fault string) bool {
	f := strings.ToLower(fault)
	return strings.Contains(f, "ya posee un ta valido") ||
		strings.Contains(f, "ya posee un ta válido")
}
