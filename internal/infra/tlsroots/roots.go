package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCertsFound is returned when a CA file holds no certificates.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrIncompleteKeyPair is returned when only one of cert/key is set.
	ErrIncompleteKeyPair = errors.New("tlsroots: cert file and key file must be set together")
)

// LoadCAPool builds a pool from PEM files and directories. Directory
// entries ending in .pem, .crt or .cer are read; other files are skipped.
func LoadCAPool(paths ...string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: %w", err)
		}
		if !info.IsDir() {
			if err := addCertFile(pool, path); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read dir %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".pem", ".crt", ".cer":
				if err := addCertFile(pool, filepath.Join(path, entry.Name())); err != nil {
					return nil, err
				}
			}
		}
	}
	return pool, nil
}

func addCertFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}

	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate in %s: %w", path, err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return fmt.Errorf("%w: %s", ErrNoCertsFound, path)
	}
	return nil
}

// ServerConfig returns a TLS 1.2+ server config serving kp. With a
// non-nil clientCAs every client must present a certificate signed by
// one of them.
func ServerConfig(kp *KeyPair, clientCAs *x509.CertPool) *tls.Config {
	cfg := &tls.Config{
		GetCertificate: kp.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}

// ClientOptions selects what a client trusts and presents.
type ClientOptions struct {
	// CAFile verifies the server; empty uses the system roots.
	CAFile string
	// CertFile and KeyFile present a client certificate.
	CertFile string
	KeyFile  string
	// ServerName overrides the name checked against the server certificate.
	ServerName string
	// InsecureSkipVerify disables server verification.
	InsecureSkipVerify bool
}

// ClientConfig returns a TLS 1.2+ client config for opts.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in flag
		MinVersion:         tls.VersionTLS12,
	}

	if opts.CAFile != "" {
		pool, err := LoadCAPool(opts.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, ErrIncompleteKeyPair
	}
	if opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
