package afip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturador-afip/internal/domain"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
)

// ── Fakes ──────────────────────────────────────────────────────────────────────

type fakeStore struct {
	tokens  map[entity.Environment]*entity.AuthToken
	phantom map[entity.Environment]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:  make(map[entity.Environment]*entity.AuthToken),
		phantom: make(map[entity.Environment]time.Time),
	}
}

func (s *fakeStore) LoadToken(env entity.Environment) (*entity.AuthToken, error) {
	return s.tokens[env], nil
}
func (s *fakeStore) SaveToken(env entity.Environment, t *entity.AuthToken) error {
	s.tokens[env] = t
	return nil
}
func (s *fakeStore) ClearToken(env entity.Environment) error {
	delete(s.tokens, env)
	return nil
}
func (s *fakeStore) LoadPhantomAt(env entity.Environment) (time.Time, error) {
	return s.phantom[env], nil
}
func (s *fakeStore) SavePhantomAt(env entity.Environment, at time.Time) error {
	s.phantom[env] = at
	return nil
}

type fakeCerts struct{}

func (fakeCerts) Credentials(entity.Environment) (string, string, error) {
	return "CERT-PEM", "KEY-PEM", nil
}

type fakeSigner struct{}

func (fakeSigner) SignTRA([]byte, string, string) (string, error) { return "Q01T", nil }

type fakeCaller struct {
	calls int
	resp  []byte
	err   error
}

func (c *fakeCaller) Call(context.Context, string, string, []byte) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func phantomFaultBody() []byte {
	return []byte(`<Envelope><Body><Fault><faultcode>coe.alreadyAuthenticated</faultcode>` +
		`<faultstring>El CEE ya posee un TA valido para el acceso al WSN solicitado</faultstring>` +
		`</Fault></Body></Envelope>`)
}

func newTestManager(store TokenStore, caller SOAPCaller) *TokenManager {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return NewTokenManager(store, fakeCerts{}, caller, fakeSigner{}, log)
}

// ── Tests ──────────────────────────────────────────────────────────────────────

func TestGetTokenUsaEspejoDurable(t *testing.T) {
	store := newFakeStore()
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "TOK", Sign: "SIG", ExpirationTime: time.Now().Add(6 * time.Hour),
	}
	caller := &fakeCaller{}
	m := newTestManager(store, caller)

	tok, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.NoError(t, err)
	assert.Equal(t, "TOK", tok.Token)
	assert.Zero(t, caller.calls, "con ticket vigente no se llama a WSAA")

	// Segunda lectura sale de la caché en memoria
	_, err = m.GetToken(context.Background(), entity.EnvHomologacion)
	require.NoError(t, err)
	assert.Zero(t, caller.calls)
}

func TestGetTokenRenuevaSiExpiraPronto(t *testing.T) {
	store := newFakeStore()
	// Faltan 5 minutos: dentro del margen de seguridad, se considera vencido
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "VIEJO", Sign: "SIG", ExpirationTime: time.Now().Add(5 * time.Minute),
	}
	caller := &fakeCaller{resp: wsaaResponseXML("NUEVO", "SIG2", "2099-01-01T00:00:00.000-03:00")}
	m := newTestManager(store, caller)

	tok, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.NoError(t, err)
	assert.Equal(t, "NUEVO", tok.Token)
	assert.Equal(t, 1, caller.calls)
	assert.Equal(t, "NUEVO", store.tokens[entity.EnvHomologacion].Token, "el ticket nuevo se espeja")
}

func TestGetTokenAmbientesAislados(t *testing.T) {
	store := newFakeStore()
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "HOMO", Sign: "S", ExpirationTime: time.Now().Add(6 * time.Hour),
	}
	caller := &fakeCaller{resp: wsaaResponseXML("PROD", "S2", "2099-01-01T00:00:00.000-03:00")}
	m := newTestManager(store, caller)

	tok, err := m.GetToken(context.Background(), entity.EnvProduccion)
	require.NoError(t, err)
	assert.Equal(t, "PROD", tok.Token, "producción no reutiliza el ticket de homologación")
	assert.Equal(t, 1, caller.calls)
}

func TestGetTokenFaultFantasma(t *testing.T) {
	store := newFakeStore()
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "VENCIDO", Sign: "S", ExpirationTime: time.Now().Add(-time.Hour),
	}
	caller := &fakeCaller{err: &HTTPStatusError{Status: 500, Body: phantomFaultBody()}}
	m := newTestManager(store, caller)

	_, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.Error(t, err)

	var phantom *domain.PhantomTokenError
	require.ErrorAs(t, err, &phantom)
	assert.Equal(t, string(entity.EnvHomologacion), phantom.Environment)
	assert.Equal(t, 720, phantom.WaitMinutes)

	assert.Nil(t, store.tokens[entity.EnvHomologacion], "el ticket espejado se limpia")
	assert.False(t, store.phantom[entity.EnvHomologacion].IsZero(), "el cooldown queda registrado")

	// Con el cooldown activo no se vuelve a tocar la red
	calls := caller.calls
	_, err = m.GetToken(context.Background(), entity.EnvHomologacion)
	require.ErrorAs(t, err, &phantom)
	assert.Positive(t, phantom.WaitMinutes)
	assert.Equal(t, calls, caller.calls, "el cooldown bloquea el LoginCms")
}

func TestPhantomCooldownSeAutolimpia(t *testing.T) {
	store := newFakeStore()
	caller := &fakeCaller{}
	m := newTestManager(store, caller)

	base := time.Now()
	m.now = func() time.Time { return base }
	_ = m.recordPhantom(entity.EnvProduccion)

	st := m.PhantomCooldown(entity.EnvProduccion)
	assert.True(t, st.Blocked)
	assert.Equal(t, 720, st.WaitMinutes)

	// Pasadas las 12 horas el cooldown expira solo
	m.now = func() time.Time { return base.Add(12*time.Hour + time.Minute) }
	st = m.PhantomCooldown(entity.EnvProduccion)
	assert.False(t, st.Blocked)
	assert.True(t, store.phantom[entity.EnvProduccion].IsZero(), "el cooldown persistido se limpia")
}

func TestPhantomCooldownSobreviveReinicio(t *testing.T) {
	store := newFakeStore()
	store.phantom[entity.EnvHomologacion] = time.Now().Add(-time.Hour)
	m := newTestManager(store, &fakeCaller{})

	st := m.PhantomCooldown(entity.EnvHomologacion)
	assert.True(t, st.Blocked, "el cooldown persistido aplica tras un reinicio")
	assert.InDelta(t, 660, st.WaitMinutes, 2)
}

func TestGetTokenFaultNoFantasma(t *testing.T) {
	store := newFakeStore()
	body := []byte(`<Envelope><Body><Fault><faultstring>Certificado expirado</faultstring></Fault></Body></Envelope>`)
	caller := &fakeCaller{err: &HTTPStatusError{Status: 500, Body: body}}
	m := newTestManager(store, caller)

	_, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.Error(t, err)

	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "Certificado expirado")
	assert.True(t, store.phantom[entity.EnvHomologacion].IsZero(), "un fault común no registra cooldown")
}

func TestInvalidateToken(t *testing.T) {
	store := newFakeStore()
	store.tokens[entity.EnvHomologacion] = &entity.AuthToken{
		Token: "TOK", Sign: "S", ExpirationTime: time.Now().Add(6 * time.Hour),
	}
	m := newTestManager(store, &fakeCaller{})

	_, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.NoError(t, err)

	require.NoError(t, m.InvalidateToken(entity.EnvHomologacion))
	assert.Nil(t, store.tokens[entity.EnvHomologacion])

	// El próximo GetToken ya no encuentra nada cacheado y va a WSAA
	caller := &fakeCaller{resp: wsaaResponseXML("OTRO", "S", "2099-01-01T00:00:00.000-03:00")}
	m.caller = caller
	tok, err := m.GetToken(context.Background(), entity.EnvHomologacion)
	require.NoError(t, err)
	assert.Equal(t, "OTRO", tok.Token)
	assert.Equal(t, 1, caller.calls)
}
