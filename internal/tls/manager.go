package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"

	"contact-relay/internal/config"
	"contact-relay/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

var ErrNoCertificate = errors.New("no TLS certificate available")

type TLSManager struct {
	config   *TLSConfig
	autoCert *autocert.Manager

	mu       sync.Mutex
	fileCert *tls.Certificate
	devCert  *tls.Certificate
}

type TLSConfig struct {
	EnableTLS   bool
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string
	Environment string
}

// TLSConfigFromServer copies the TLS part of the server settings.
func TLSConfigFromServer(environment string, s config.ServerConfig) *TLSConfig {
	return &TLSConfig{
		EnableTLS:   s.EnableTLS,
		AutoCert:    s.AutoCert,
		Domain:      s.Domain,
		CertFile:    s.CertFile,
		KeyFile:     s.KeyFile,
		AutoCertDir: s.AutoCertDir,
		Email:       s.Email,
		Environment: environment,
	}
}

func NewTLSManager(cfg *TLSConfig) *TLSManager {
	manager := &TLSManager{
		config: cfg,
	}

	if cfg.AutoCert && cfg.EnableTLS {
		manager.setupAutoCert()
	}

	return manager
}

func (m *TLSManager) setupAutoCert() {
	if m.config.Domain == "" {
		util.Warn("AutoCert requested without SERVER_DOMAIN, skipping")
		return
	}
	if err := os.MkdirAll(m.config.AutoCertDir, 0700); err != nil {
		util.Warn("Could not create autocert directory", zap.Error(err))
		return
	}

	m.autoCert = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(m.config.Domain),
		Cache:      autocert.DirCache(m.config.AutoCertDir),
		Email:      m.config.Email,
	}

	util.Info("AutoCert configured",
		zap.String("domain", m.config.Domain),
		zap.String("cache_dir", m.config.AutoCertDir))
}

// GetCertificate tries AutoCert, then the configured key pair, then (in
// development only) a self-signed certificate.
func (m *TLSManager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if m.autoCert != nil {
		cert, err := m.autoCert.GetCertificate(hello)
		if err == nil {
			return cert, nil
		}
		util.Debug("AutoCert could not serve certificate", zap.Error(err))
	}

	if m.config.CertFile != "" && m.config.KeyFile != "" {
		cert, err := m.loadFileCert()
		if err == nil {
			return cert, nil
		}
		util.Warn("Failed to load TLS key pair", zap.Error(err))
	}

	if m.config.Environment == config.EnvDevelopment {
		return m.selfSignedCert()
	}
	return nil, ErrNoCertificate
}

func (m *TLSManager) loadFileCert() (*tls.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fileCert != nil {
		return m.fileCert, nil
	}
	cert, err := tls.LoadX509KeyPair(m.config.CertFile, m.config.KeyFile)
	if err != nil {
		return nil, err
	}
	m.fileCert = &cert
	return m.fileCert, nil
}

func (m *TLSManager) selfSignedCert() (*tls.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devCert != nil {
		return m.devCert, nil
	}

	hosts := []string{"localhost", "127.0.0.1", "::1"}
	if m.config.Domain != "" {
		hosts = append(hosts, m.config.Domain)
	}

	cert, err := NewDevCertGenerator(m.config.AutoCertDir).GenerateCert(hosts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	m.devCert = &cert
	return m.devCert, nil
}

func (m *TLSManager) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}
}

func (m *TLSManager) GetAutocertManager() *autocert.Manager {
	return m.autoCert
}
