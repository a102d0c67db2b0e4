package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLS versions accepted in MinVersion.
var tlsVersions = map[string]uint16{
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig holds server-side TLS settings. TLS is off unless both
// CertFile and KeyFile are set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ClientCAFile, when set, requires clients to present a certificate
	// signed by this CA.
	ClientCAFile string `yaml:"client_ca_file" mapstructure:"client_ca_file"`

	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// IsEnabled reports whether TLS is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}

// Validate checks that the configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("tls: cert_file and key_file must be provided together")
	}
	if c.ClientCAFile != "" && !c.IsEnabled() {
		return fmt.Errorf("tls: client_ca_file requires cert_file and key_file")
	}
	if _, ok := tlsVersions[c.minVersion()]; !ok {
		return fmt.Errorf("tls: min_version must be 1.2 or 1.3 (got: %s)", c.MinVersion)
	}
	return nil
}

// Build loads the certificates. It returns nil when TLS is not enabled.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tls: load key pair: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsVersions[c.minVersion()],
		NextProtos:   []string{"h2", "http/1.1"},
	}

	if c.ClientCAFile != "" {
		pool, err := loadCertPool(c.ClientCAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

func (c *TLSConfig) minVersion() string {
	if c.MinVersion == "" {
		return "1.2"
	}
	return c.MinVersion
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tls: read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("tls: no certificates in %s", path)
	}
	return pool, nil
}
