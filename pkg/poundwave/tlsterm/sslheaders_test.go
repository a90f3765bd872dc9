package tlsterm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/yourusername/poundwave/pkg/poundwave/header"
)

func selfSignedCert(t *testing.T) *x509.Certificate {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: "client.example.com"},
		Issuer:       pkix.Name{CommonName: "test-ca"},
		NotBefore:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	return cert
}

func TestInjectSSLHeadersPopulatesSubjectAndSerial(t *testing.T) {
	cert := selfSignedCert(t)
	state := tls.ConnectionState{
		CipherSuite:      tls.TLS_AES_128_GCM_SHA256,
		PeerCertificates: []*x509.Certificate{cert},
	}

	var h header.Header
	InjectSSLHeaders(&h, state)

	if got := h.GetString([]byte("X-SSL-Subject")); got != "CN=client.example.com" {
		t.Errorf("X-SSL-Subject = %q", got)
	}
	if got := h.GetString([]byte("X-SSL-serial")); got != "42" {
		t.Errorf("X-SSL-serial = %q, want 42", got)
	}
	if got := h.GetString([]byte("X-SSL-certificate")); got == "" {
		t.Error("X-SSL-certificate not set")
	} else if containsNewline(got) {
		t.Error("X-SSL-certificate must not contain raw newlines (breaks header framing)")
	}
}

func TestInjectSSLHeadersNoPeerCertSkipsSubject(t *testing.T) {
	var h header.Header
	InjectSSLHeaders(&h, tls.ConnectionState{CipherSuite: tls.TLS_AES_128_GCM_SHA256})
	if h.Has([]byte("X-SSL-Subject")) {
		t.Error("X-SSL-Subject should not be set without a peer certificate")
	}
	if !h.Has([]byte("X-SSL-Cipher")) {
		t.Error("X-SSL-Cipher should always be set on a TLS connection")
	}
}

func containsNewline(s string) bool {
	for _, r := range s {
		if r == '\n' {
			return true
		}
	}
	return false
}
