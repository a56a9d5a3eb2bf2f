// Firma CMS/PKCS#7 del TRA y carga de certificados (PEM o .p12).

package afip

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/smallstep/pkcs7"
	"golang.org/x/crypto/pkcs12"

	"github.com/tu-usuario/facturador-afip/internal/domain"
)

// TRASigner define el puerto de firma del ticket de acceso.
type TRASigner interface {
	// SignTRA firma el TRA como CMS (SHA-256, atributos autenticados,
	// certificado embebido) y devuelve el DER en base64, listo para in0.
	SignTRA(tra []byte, certPEM, keyPEM string) (string, error)
}

// CMSSigner implementa TRASigner con PKCS#7.
type CMSSigner struct{}

// NewCMSSigner construye el firmador.
func NewCMSSigner() *CMSSigner { return &CMSSigner{} }

// SignTRA firma el TRA con el certificado y la llave del emisor.
// WSAA exige el contenido embebido en el CMS (no detached) y rechaza
// digests distintos de SHA-256 para certificados emitidos desde 2021.
func (s *CMSSigner) SignTRA(tra []byte, certPEM, keyPEM string) (string, error) {
	cert, err := ParseCertPEM(certPEM)
	if err != nil {
		return "", &domain.SigningError{Err: err}
	}
	key, err := ParseKeyPEM(keyPEM)
	if err != nil {
		return "", &domain.SigningError{Err: err}
	}

	signed, err := pkcs7.NewSignedData(tra)
	if err != nil {
		return "", &domain.SigningError{Err: fmt.Errorf("iniciar CMS: %w", err)}
	}
	signed.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := signed.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return "", &domain.SigningError{Err: fmt.Errorf("agregar firmante: %w", err)}
	}
	der, err := signed.Finish()
	if err != nil {
		return "", &domain.SigningError{Err: fmt.Errorf("serializar CMS: %w", err)}
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

var _ TRASigner = (*CMSSigner)(nil)

// ParseCertPEM decodifica un certificado X.509 en PEM.
func ParseCertPEM(certPEM string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("certificado PEM inválido")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsear certificado: %w", err)
	}
	return cert, nil
}

// ParseKeyPEM decodifica una llave privada en PEM (PKCS#8, PKCS#1 o EC).
func ParseKeyPEM(keyPEM string) (crypto.PrivateKey, error) {
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, fmt.Errorf("llave privada PEM inválida")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("formato de llave privada no soportado")
}

// ConvertP12 convierte un bundle PKCS#12 al par PEM que se persiste en la
// configuración fiscal. El password puede ser vacío.
func ConvertP12(data []byte, password string) (certPEM, keyPEM string, err error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return "", "", fmt.Errorf("decodificar p12: %w", err)
	}
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("serializar llave: %w", err)
	}
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM, nil
}
