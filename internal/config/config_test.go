package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ZEPTO_API_TOKEN", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.IsProduction() {
		t.Errorf("want production by default, got %q", cfg.Environment)
	}
	if cfg.RateLimit.MaxPerWindow != 3 {
		t.Errorf("want max 3, got %d", cfg.RateLimit.MaxPerWindow)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("want window 1m, got %s", cfg.RateLimit.Window)
	}
	if cfg.Relay.ToAddress != "contact@t25apps.com" {
		t.Errorf("unexpected destination %q", cfg.Relay.ToAddress)
	}
	if len(cfg.Relay.AllowedOrigins) != 3 {
		t.Errorf("want 3 default origins, got %v", cfg.Relay.AllowedOrigins)
	}
	if cfg.ProviderConfigured() {
		t.Error("provider should not be configured without a token")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ZEPTO_API_TOKEN", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	t.Setenv("RATE_LIMIT_BACKEND", "REDIS")
	t.Setenv("SUBJECT_TIMEZONE", "UTC")
	t.Setenv("REDIS_TLS_CA_FILE", "/etc/redis/ca.pem")
	t.Setenv("REDIS_TLS_CERT_FILE", "/etc/redis/client.pem")
	t.Setenv("REDIS_TLS_KEY_FILE", "/etc/redis/client.key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.ProviderConfigured() {
		t.Error("provider should be configured")
	}
	if got := cfg.Relay.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", got)
	}
	if cfg.RateLimit.MaxPerWindow != 5 || cfg.RateLimit.Window != 2*time.Minute {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Backend != BackendRedis {
		t.Errorf("want redis backend, got %q", cfg.RateLimit.Backend)
	}
	if cfg.Relay.SubjectLocation != time.UTC {
		t.Errorf("want UTC location, got %v", cfg.Relay.SubjectLocation)
	}
	if cfg.Redis.TLSCAFile != "/etc/redis/ca.pem" || cfg.Redis.TLSCertFile != "/etc/redis/client.pem" || cfg.Redis.TLSKeyFile != "/etc/redis/client.key" {
		t.Errorf("unexpected redis TLS paths %+v", cfg.Redis)
	}
}

func TestLoadConfigReportsEveryBadValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, key := range []string{"SERVER_PORT", "PROVIDER_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("RATE_LIMIT_UNKNOWN_POLICY", "maybe")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected unknown policy to be rejected")
	}
}
