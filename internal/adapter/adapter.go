package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	ErrBadCA       = errors.New("failed to parse CA certificate")
	ErrHalfKeyPair = errors.New("client certificate and key must be set together")
)

// TLSFiles names the PEM files used for broker and schema registry
// connections. Cert and Key are optional: without them the server is
// verified but the client presents no certificate.
type TLSFiles struct {
	CA   string
	Cert string
	Key  string
}

func (f TLSFiles) Config() (*tls.Config, error) {
	const op = "TLSFiles.Config"

	if (f.Cert == "") != (f.Key == "") {
		return nil, fmt.Errorf("%s: %w", op, ErrHalfKeyPair)
	}

	pool, err := loadCAPool(f.CA)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	if f.Cert == "" {
		return cfg, nil
	}

	pair, err := tls.LoadX509KeyPair(f.Cert, f.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: client certificate: %w", op, err)
	}
	cfg.Certificates = []tls.Certificate{pair}
	return cfg, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, ErrBadCA
	}
	return pool, nil
}
