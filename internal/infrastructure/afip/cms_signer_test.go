package afip

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/smallstep/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturador-afip/internal/domain"
)

// testCertPair genera un certificado autofirmado RSA con su llave, en PEM.
func testCertPair(t *testing.T) (certPEM, keyPEM string) {
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

func TestSignTRA(t *testing.T) {
	certPEM, keyPEM := testCertPair(t)
	tra := BuildTRA("wsfe", time.Now())

	cms, err := NewCMSSigner().SignTRA(tra, certPEM, keyPEM)
	require.NoError(t, err)

	der, err := base64.StdEncoding.DecodeString(cms)
	require.NoError(t, err, "el CMS debe ser base64 válido")

	p7, err := pkcs7.Parse(der)
	require.NoError(t, err, "el CMS debe ser PKCS#7 parseable")
	assert.Equal(t, tra, p7.Content, "el TRA va embebido en el CMS, no detached")
	require.NotEmpty(t, p7.Certificates, "el certificado del firmante viaja en el CMS")
	assert.NoError(t, p7.Verify(), "la firma debe verificar con el certificado embebido")
}

func TestSignTRACertificadoInvalido(t *testing.T) {
	_, keyPEM := testCertPair(t)

	_, err := NewCMSSigner().SignTRA([]byte("<tra/>"), "no es un PEM", keyPEM)
	require.Error(t, err)

	var sigErr *domain.SigningError
	assert.ErrorAs(t, err, &sigErr)
}

func TestSignTRALlaveInvalida(t *testing.T) {
	certPEM, _ := testCertPair(t)

	_, err := NewCMSSigner().SignTRA([]byte("<tra/>"), certPEM, "tampoco es un PEM")
	require.Error(t, err)

	var sigErr *domain.SigningError
	assert.ErrorAs(t, err, &sigErr)
}

func TestParseKeyPEMPKCS1(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))

	parsed, err := ParseKeyPEM(keyPEM)
	require.NoError(t, err, "las llaves PKCS#1 también se aceptan")
	assert.NotNil(t, parsed)
}
