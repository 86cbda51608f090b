// Package tls generates and checks TLS certificates for the gateway.
// Production deployments point the gateway at an operator-provided
// certificate pair; for local development EnsureDevCert creates a
// self-signed localhost certificate on first use and reuses it after.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	stdtls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// devCertValidity is how long a generated development certificate lasts.
const devCertValidity = 365 * 24 * time.Hour

// ServerCert holds the file paths of a certificate pair.
type ServerCert struct {
	CertFile string
	KeyFile  string
}

// ValidateCert checks that certFile and keyFile form a usable pair.
func ValidateCert(certFile, keyFile string) error {
	if _, err := stdtls.LoadX509KeyPair(certFile, keyFile); err != nil {
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}
	return nil
}

// EnsureDevCert returns a self-signed localhost certificate stored under
// dir, generating a fresh one when none exists or the existing one is
// expired.
func EnsureDevCert(dir string) (ServerCert, error) {
	sc := ServerCert{
		CertFile: filepath.Join(dir, "dev.crt"),
		KeyFile:  filepath.Join(dir, "dev.key"),
	}

	if devCertUsable(sc) {
		return sc, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ServerCert{}, fmt.Errorf("failed to create certs directory: %w", err)
	}

	cert, key, err := generateDevCert()
	if err != nil {
		return ServerCert{}, err
	}
	if err := saveCert(sc.CertFile, cert); err != nil {
		return ServerCert{}, err
	}
	if err := saveKey(sc.KeyFile, key); err != nil {
		return ServerCert{}, err
	}
	return sc, nil
}

// devCertUsable reports whether an existing dev certificate can be
// reused: pair loads and the certificate is valid for at least a day.
func devCertUsable(sc ServerCert) bool {
	certPEM, err := os.ReadFile(filepath.Clean(sc.CertFile))
	if err != nil {
		return false
	}
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return false
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return false
	}
	if time.Now().Add(24 * time.Hour).After(cert.NotAfter) {
		return false
	}
	return ValidateCert(sc.CertFile, sc.KeyFile) == nil
}

// generateDevCert creates a self-signed certificate for localhost.
func generateDevCert() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"authgate"},
			CommonName:   "authgate dev",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(devCertValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, key, nil
}

// saveCert saves a certificate to a PEM file.
func saveCert(path string, cert *x509.Certificate) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create cert file: %w", err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode certificate: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close cert file: %w", err)
	}

	return nil
}

// saveKey saves an ECDSA private key to a PEM file.
func saveKey(path string, key *ecdsa.PrivateKey) error {
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode key: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close key file: %w", err)
	}

	return nil
}
