package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"contact-relay/internal/config"
)

func TestDevCertGeneratorWritesAndReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	gen := NewDevCertGenerator(dir)

	first, err := gen.GenerateCert([]string{"localhost", "127.0.0.1"})
	if err != nil {
		t.Fatalf("GenerateCert: %v", err)
	}
	leaf, err := x509.ParseCertificate(first.Certificate[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(leaf.DNSNames) != 1 || leaf.DNSNames[0] != "localhost" || len(leaf.IPAddresses) != 1 {
		t.Errorf("unexpected SANs %v %v", leaf.DNSNames, leaf.IPAddresses)
	}

	info, err := os.Stat(filepath.Join(dir, "dev-key.pem"))
	if err != nil {
		t.Fatalf("key not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key permissions %v", info.Mode().Perm())
	}

	second, err := gen.GenerateCert([]string{"localhost", "127.0.0.1"})
	if err != nil {
		t.Fatalf("GenerateCert again: %v", err)
	}
	if string(second.Certificate[0]) != string(first.Certificate[0]) {
		t.Error("valid certificate should be reused")
	}
}

func TestGetCertificateFallbacks(t *testing.T) {
	dev := NewTLSManager(&TLSConfig{
		EnableTLS:   true,
		AutoCertDir: t.TempDir(),
		Environment: config.EnvDevelopment,
	})
	cert, err := dev.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	if err != nil || cert == nil {
		t.Fatalf("development should fall back to a self-signed cert: %v", err)
	}
	again, _ := dev.GetCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	if again != cert {
		t.Error("self-signed certificate should be cached")
	}

	prod := NewTLSManager(&TLSConfig{
		EnableTLS:   true,
		AutoCertDir: t.TempDir(),
		Environment: config.EnvProduction,
	})
	if _, err := prod.GetCertificate(&tls.ClientHelloInfo{ServerName: "example.com"}); !errors.Is(err, ErrNoCertificate) {
		t.Fatalf("production without certificates: want ErrNoCertificate, got %v", err)
	}
}

func TestAutoCertRequiresDomain(t *testing.T) {
	m := NewTLSManager(&TLSConfig{EnableTLS: true, AutoCert: true, AutoCertDir: t.TempDir()})
	if m.GetAutocertManager() != nil {
		t.Error("autocert must not be configured without a domain")
	}

	m = NewTLSManager(&TLSConfig{EnableTLS: true, AutoCert: true, Domain: "relay.example.com", AutoCertDir: t.TempDir()})
	if m.GetAutocertManager() == nil {
		t.Error("autocert should be configured")
	}
}
