package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contact-relay/internal/config"
)

func writeTestPair(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "redis-test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func TestRedisTLSConfigReadsPathsFromConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeTestPair(t, dir)

	caOnly, err := redisTLSConfig(config.RedisConfig{TLSCAFile: certFile})
	if err != nil {
		t.Fatalf("CA only: %v", err)
	}
	if caOnly.RootCAs == nil || len(caOnly.Certificates) != 0 {
		t.Errorf("want root CAs and no client cert, got %+v", caOnly)
	}
	if caOnly.MinVersion != tls.VersionTLS12 {
		t.Errorf("want TLS 1.2 minimum, got %x", caOnly.MinVersion)
	}

	mutual, err := redisTLSConfig(config.RedisConfig{TLSCAFile: certFile, TLSCertFile: certFile, TLSKeyFile: keyFile})
	if err != nil {
		t.Fatalf("client pair: %v", err)
	}
	if len(mutual.Certificates) != 1 {
		t.Errorf("want one client certificate, got %d", len(mutual.Certificates))
	}
}

func TestRedisTLSConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := redisTLSConfig(config.RedisConfig{TLSCAFile: filepath.Join(dir, "missing.pem")})
	if err == nil || !strings.Contains(err.Error(), "CA file") {
		t.Errorf("missing CA: want read error, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := redisTLSConfig(config.RedisConfig{TLSCAFile: garbage}); err == nil {
		t.Error("unparseable CA should fail")
	}

	certFile, _ := writeTestPair(t, dir)
	_, err = redisTLSConfig(config.RedisConfig{TLSCAFile: certFile, TLSCertFile: certFile, TLSKeyFile: garbage})
	if err == nil || !strings.Contains(err.Error(), "certificate/key") {
		t.Errorf("bad key: want load error, got %v", err)
	}
}
