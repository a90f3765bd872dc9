package tlsterm

import (
	"crypto/x509"
	"fmt"
	"os"
)

func loadCertPool(pemFiles []string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, path := range pemFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("%s: no certificates found", path)
		}
	}
	return pool, nil
}
