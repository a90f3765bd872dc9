// Package tlsterm builds the client-facing TLS configuration for a listener
// and injects X-SSL-* headers describing the verified client certificate,
// the way Pound's HTTPS listener path does. A listener takes
// operator-supplied certificates, the same as Pound's Cert directive.
package tlsterm

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// ClientAuthLevel mirrors Pound's four client-certificate verification
// modes.
type ClientAuthLevel int

const (
	ClientAuthNone ClientAuthLevel = iota
	ClientAuthRequest
	ClientAuthRequire
	ClientAuthRequireStrict // require + verify against configured CAs
)

func (l ClientAuthLevel) toStdlib() tls.ClientAuthType {
	switch l {
	case ClientAuthRequest:
		return tls.RequestClientCert
	case ClientAuthRequire:
		return tls.RequireAnyClientCert
	case ClientAuthRequireStrict:
		return tls.RequireAndVerifyClientCert
	default:
		return tls.NoClientCert
	}
}

var defaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// Config describes one listener's TLS termination settings.
type Config struct {
	CertFile string
	KeyFile  string

	MinVersion   uint16
	MaxVersion   uint16
	CipherSuites []uint16

	ClientAuth ClientAuthLevel
	ClientCAs  []string // PEM files of trusted client-certificate CAs

	NextProtos []string
}

// NewConfig returns a Config with Pound-equivalent secure defaults: TLS 1.2
// minimum, modern AEAD cipher suites only, HTTP/1.1 ALPN.
func NewConfig() *Config {
	return &Config{
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS13,
		CipherSuites: defaultCipherSuites,
		NextProtos:   []string{"http/1.1"},
	}
}

// Build produces a *tls.Config ready to pass to tls.NewListener.
func (c *Config) Build() (*tls.Config, error) {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, errors.New("tlsterm: CertFile and KeyFile are required")
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsterm: load certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   c.MinVersion,
		MaxVersion:   c.MaxVersion,
		CipherSuites: c.CipherSuites,
		ClientAuth:   c.ClientAuth.toStdlib(),
		NextProtos:   c.NextProtos,
	}

	if len(c.ClientCAs) > 0 {
		pool, err := loadCertPool(c.ClientCAs)
		if err != nil {
			return nil, fmt.Errorf("tlsterm: load client CAs: %w", err)
		}
		cfg.ClientCAs = pool
	}

	return cfg, nil
}
