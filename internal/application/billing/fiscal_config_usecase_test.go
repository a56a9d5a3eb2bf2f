package billing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturador-afip/internal/application/dto"
	"github.com/tu-usuario/facturador-afip/internal/domain"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// testPEMPair genera un certificado autofirmado RSA con su llave, en PEM.
func testPEMPair(t *testing.T) (certPEM, keyPEM string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-emisor", Country: []string{"AR"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func validUpdate() dto.UpdateFiscalConfigRequest {
	return dto.UpdateFiscalConfigRequest{
		CUIT:              "20-12345678-9",
		BusinessName:      "Almacén Don Pepe",
		IvaCondition:      string(entity.IvaMonotributo),
		PointOfSale:       3,
		ActiveEnvironment: string(entity.EnvHomologacion),
	}
}

func TestFiscalConfig_GetWithoutConfig(t *testing.T) {
	uc := NewFiscalConfigUseCase(&fakeFiscalRepo{}, &fakeGateway{}, testLogger())

	resp, err := uc.Get()
	require.NoError(t, err)
	assert.Equal(t, string(entity.EnvHomologacion), resp.ActiveEnvironment, "sin configurar arranca en homologación")
	assert.Empty(t, resp.CUIT)
	assert.False(t, resp.Homologacion.HasCertificate)
}

func TestFiscalConfig_Update(t *testing.T) {
	repo := &fakeFiscalRepo{}
	uc := NewFiscalConfigUseCase(repo, &fakeGateway{}, testLogger())

	resp, err := uc.Update(validUpdate())
	require.NoError(t, err)
	assert.Equal(t, "20123456789", resp.CUIT, "el CUIT se guarda limpio, solo dígitos")
	assert.Equal(t, string(entity.IvaMonotributo), resp.IvaCondition)
	require.NotNil(t, repo.cfg)
	assert.Equal(t, 3, repo.cfg.PointOfSale)
}

func TestFiscalConfig_UpdateValidation(t *testing.T) {
	uc := NewFiscalConfigUseCase(&fakeFiscalRepo{}, &fakeGateway{}, testLogger())

	in := validUpdate()
	in.CUIT = "123"
	_, err := uc.Update(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = validUpdate()
	in.IvaCondition = "RESPONSABLE_NO_INSCRIPTO"
	_, err = uc.Update(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = validUpdate()
	in.ActiveEnvironment = "staging"
	_, err = uc.Update(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = validUpdate()
	in.PointOfSale = 0
	_, err = uc.Update(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFiscalConfig_UploadCertificatesPEM(t *testing.T) {
	certPEM, keyPEM := testPEMPair(t)
	repo := &fakeFiscalRepo{cfg: readyConfig(entity.IvaMonotributo)}
	gw := &fakeGateway{}
	uc := NewFiscalConfigUseCase(repo, gw, testLogger())

	resp, err := uc.UploadCertificates(dto.UploadCertificatesRequest{
		Environment: string(entity.EnvProduccion),
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
	})
	require.NoError(t, err)

	assert.True(t, resp.Produccion.HasCertificate)
	assert.True(t, resp.Produccion.HasPrivateKey)
	assert.Equal(t, certPEM, repo.cfg.Produccion.CertPEM)

	// Cambiar el certificado invalida el ticket del ambiente, en DB y en memoria.
	assert.Contains(t, repo.clearedTokens, entity.EnvProduccion)
	assert.Contains(t, gw.invalidated, entity.EnvProduccion)
}

func TestFiscalConfig_UploadCertificatesRejectsGarbage(t *testing.T) {
	uc := NewFiscalConfigUseCase(&fakeFiscalRepo{}, &fakeGateway{}, testLogger())

	_, err := uc.UploadCertificates(dto.UploadCertificatesRequest{
		Environment: string(entity.EnvHomologacion),
		CertPEM:     "no soy un PEM",
		KeyPEM:      "tampoco",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UploadCertificates(dto.UploadCertificatesRequest{
		Environment: string(entity.EnvHomologacion),
		P12Base64:   "¡¡no-base64!!",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.UploadCertificates(dto.UploadCertificatesRequest{Environment: "staging"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFiscalConfig_Readiness(t *testing.T) {
	repo := &fakeFiscalRepo{}
	uc := NewFiscalConfigUseCase(repo, &fakeGateway{}, testLogger())

	resp, err := uc.Readiness()
	require.NoError(t, err)
	assert.False(t, resp.Ready)
	assert.Contains(t, resp.MissingFields, "cuit")

	repo.cfg = readyConfig(entity.IvaMonotributo)
	resp, err = uc.Readiness()
	require.NoError(t, err)
	assert.True(t, resp.Ready)
	assert.Empty(t, resp.MissingFields)
}
