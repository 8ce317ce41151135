package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default issuing parameters.
const (
	// DefaultDays is the validity period of issued certificates.
	DefaultDays = 365

	// DefaultKeySize is the RSA key size in bits.
	DefaultKeySize = 2048

	// DefaultOrganization is the subject organization.
	DefaultOrganization = "Caldera"
)

// CA material file names inside the certificate directory.
const (
	caCertFile = "ca.pem"
	caKeyFile  = "ca-key.pem"
)

// IssueConfig configures certificate issuing.
type IssueConfig struct {
	// Days is the validity period of issued certificates in days.
	// Default: 365
	Days int

	// KeySize is the RSA key size in bits (2048, 3072, or 4096).
	// Default: 2048
	KeySize int

	// Organization is the certificate subject organization.
	// Default: "Caldera"
	Organization string
}

func (c *IssueConfig) applyDefaults() error {
	if c.Days == 0 {
		c.Days = DefaultDays
	}
	if c.KeySize == 0 {
		c.KeySize = DefaultKeySize
	}
	if c.Organization == "" {
		c.Organization = DefaultOrganization
	}

	if c.Days < 0 {
		return fmt.Errorf("validity days cannot be negative")
	}
	if c.KeySize != 2048 && c.KeySize != 3072 && c.KeySize != 4096 {
		return fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", c.KeySize)
	}
	return nil
}

// CA is a self-signed issuing authority rooted in a certificate
// directory. It produces the <name>.pem artifacts that gated services
// wait for: each artifact bundles the leaf certificate and its private
// key in one PEM file, with the CA certificate available separately as
// ca.pem for trust distribution.
type CA struct {
	dir    string
	config IssueConfig
	cert   *x509.Certificate
	key    *rsa.PrivateKey
}

// LoadOrCreateCA opens the CA in dir, generating a new self-signed CA
// certificate and key on first use. Existing CA material is reused so
// repeated issuing runs keep a stable trust root.
func LoadOrCreateCA(dir string, cfg IssueConfig) (*CA, error) {
	if dir == "" {
		return nil, fmt.Errorf("certificate directory cannot be empty")
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	ca := &CA{dir: dir, config: cfg}

	cert, key, err := loadCA(dir)
	if err != nil {
		return nil, err
	}
	if cert != nil {
		ca.cert = cert
		ca.key = key
		return ca, nil
	}

	if err := ca.create(); err != nil {
		return nil, err
	}
	return ca, nil
}

// loadCA reads existing CA material. It returns nil without an error
// when no CA exists yet.
func loadCA(dir string) (*x509.Certificate, *rsa.PrivateKey, error) {
	certPEM, err := os.ReadFile(filepath.Join(dir, caCertFile))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	keyPEM, err := os.ReadFile(filepath.Join(dir, caKeyFile))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA key: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, nil, fmt.Errorf("failed to parse CA certificate PEM in %s", dir)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	block, _ = pem.Decode(keyPEM)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, nil, fmt.Errorf("failed to parse CA key PEM in %s", dir)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA key: %w", err)
	}

	return cert, key, nil
}

// create generates and persists a fresh self-signed CA.
func (ca *CA) create() error {
	key, err := rsa.GenerateKey(rand.Reader, ca.config.KeySize)
	if err != nil {
		return fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := newSerialNumber()
	if err != nil {
		return err
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{ca.config.Organization},
			CommonName:   ca.config.Organization + " CA",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, ca.config.Days),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("failed to parse generated CA certificate: %w", err)
	}

	certOut := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := writeFileAtomic(filepath.Join(ca.dir, caCertFile), certOut, 0o644); err != nil {
		return fmt.Errorf("failed to write CA certificate: %w", err)
	}

	keyOut := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := writeFileAtomic(filepath.Join(ca.dir, caKeyFile), keyOut, 0o600); err != nil {
		return fmt.Errorf("failed to write CA key: %w", err)
	}

	ca.cert = cert
	ca.key = key
	return nil
}

// Dir returns the certificate directory.
func (ca *CA) Dir() string {
	return ca.dir
}

// Certificate returns the CA certificate.
func (ca *CA) Certificate() *x509.Certificate {
	return ca.cert
}

// CertFile returns the path of the CA certificate.
func (ca *CA) CertFile() string {
	return filepath.Join(ca.dir, caCertFile)
}

// Issue creates a private key and certificate for the given name and
// writes both into <name>.pem in the certificate directory. The bundle
// appears atomically so a gate watching the directory never sees a
// partial artifact. Issuing the same name again replaces the bundle.
//
// Names that parse as IP addresses become IP SANs, everything else a
// DNS SAN.
func (ca *CA) Issue(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("certificate name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("certificate name %q cannot contain path separators", name)
	}

	key, err := rsa.GenerateKey(rand.Reader, ca.config.KeySize)
	if err != nil {
		return "", fmt.Errorf("failed to generate key for %s: %w", name, err)
	}

	serial, err := newSerialNumber()
	if err != nil {
		return "", err
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{ca.config.Organization},
			CommonName:   name,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, ca.config.Days),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	if ip := net.ParseIP(name); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{name}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		return "", fmt.Errorf("failed to create certificate for %s: %w", name, err)
	}

	var bundle []byte
	bundle = append(bundle, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	bundle = append(bundle, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})...)

	path := filepath.Join(ca.dir, name+".pem")
	if err := writeFileAtomic(path, bundle, 0o600); err != nil {
		return "", fmt.Errorf("failed to write certificate bundle for %s: %w", name, err)
	}

	return path, nil
}

// newSerialNumber draws a random 128-bit certificate serial.
func newSerialNumber() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return serial, nil
}

// writeFileAtomic writes data to path through a temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cert-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
