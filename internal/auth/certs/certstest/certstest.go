// Package certstest provides signer key fixtures for tests that verify
// RS256 tokens.
package certstest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"sync/atomic"
	"testing"
	"time"
)

// GenerateKey returns a fresh 2048-bit RSA key.
func GenerateKey(tb testing.TB) *rsa.PrivateKey {
	tb.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("generate rsa key: %v", err)
	}
	return key
}

// CertificatePEM wraps the key's public half in a self-signed X.509
// certificate, the format the production key endpoint serves.
func CertificatePEM(tb testing.TB, key *rsa.PrivateKey) string {
	tb.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "opsgate-test-signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		tb.Fatalf("create certificate: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

// PublicKeyPEM encodes the public key as PKIX "PUBLIC KEY".
func PublicKeyPEM(tb testing.TB, key *rsa.PrivateKey) string {
	tb.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		tb.Fatalf("marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// StaticFetcher serves a fixed kid -> PEM map and counts calls.
type StaticFetcher struct {
	Keys  map[string]string
	Err   error
	calls atomic.Int64
}

func (f *StaticFetcher) Fetch(_ context.Context) (map[string]string, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Keys, nil
}

func (f *StaticFetcher) Calls() int {
	return int(f.calls.Load())
}
