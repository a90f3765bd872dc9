package tlsterm

import (
	"crypto/tls"
	"encoding/pem"
	"strings"

	"github.com/yourusername/poundwave/pkg/poundwave/header"
)

// InjectSSLHeaders adds the X-SSL-* headers Pound forwards to the backend
// when a client connected over HTTPS. X-SSL-Cipher is always set; the
// certificate-derived headers are set only when state carries a peer
// certificate (none under ClientAuthNone, or when the client presented
// none under ClientAuthRequest).
func InjectSSLHeaders(h *header.Header, state tls.ConnectionState) {
	h.Set([]byte("X-SSL-Cipher"), []byte(tls.CipherSuiteName(state.CipherSuite)))

	if len(state.PeerCertificates) == 0 {
		return
	}
	cert := state.PeerCertificates[0]

	h.Set([]byte("X-SSL-Subject"), []byte(cert.Subject.String()))
	h.Set([]byte("X-SSL-Issuer"), []byte(cert.Issuer.String()))
	h.Set([]byte("X-SSL-notBefore"), []byte(cert.NotBefore.UTC().Format("Jan _2 15:04:05 2006 GMT")))
	h.Set([]byte("X-SSL-notAfter"), []byte(cert.NotAfter.UTC().Format("Jan _2 15:04:05 2006 GMT")))
	h.Set([]byte("X-SSL-serial"), []byte(cert.SerialNumber.String()))
	h.Set([]byte("X-SSL-certificate"), []byte(pemWithTabContinuation(cert.Raw)))
}

// pemWithTabContinuation PEM-encodes a DER certificate and replaces the
// newlines in the body with "\t" so the multi-line PEM survives as a single
// HTTP header line, matching Pound's own rewrite of the BIO_write-produced
// certificate text before calling add_header.
func pemWithTabContinuation(der []byte) string {
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	encoded := string(pem.EncodeToMemory(block))
	return strings.ReplaceAll(strings.TrimRight(encoded, "\n"), "\n", "\t")
}
