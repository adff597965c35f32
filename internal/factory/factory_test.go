package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contact-relay/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.EnvDevelopment,
		Relay: config.RelayConfig{
			Path:        "/api/send-email",
			FromAddress: "noreply@t25apps.com",
			ToAddress:   "contact@t25apps.com",
			SiteName:    "T25Apps",
		},
		Provider: config.ProviderConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		RateLimit: config.RateLimitConfig{
			MaxPerWindow:  3,
			Window:        time.Minute,
			Backend:       config.BackendMemory,
			UnknownPolicy: config.UnknownPolicyShared,
		},
		Redis:     config.RedisConfig{URL: "redis://127.0.0.1:1/0", PoolSize: 2},
		Bucketing: config.BucketingConfig{EventBuckets: 4},
	}
}

func TestNewWiresMemoryBackend(t *testing.T) {
	f, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	if f.rateLimitStore.Name() != "memory" {
		t.Errorf("want memory store, got %s", f.rateLimitStore.Name())
	}
	if f.ServiceFactory().RelayService() == nil {
		t.Fatal("relay service missing")
	}
	if f.ServiceFactory().RelayService() != f.ServiceFactory().RelayService() {
		t.Error("relay service should be a singleton")
	}
	if errs := f.HealthCheck(context.Background()); len(errs) != 0 {
		t.Errorf("unexpected health errors %v", errs)
	}
	if f.TLSManager() != nil {
		t.Error("TLS manager should not exist when TLS is disabled")
	}

	f.Close()
	f.Close()
	f.WaitForClose()
}

func TestRouterServesRelayAndHealth(t *testing.T) {
	f, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	router := f.Router("contact-relay")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"service":"contact-relay"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/send-email", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty submission: want 400, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Backend = config.BackendRedis

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("development should degrade, got %v", err)
	}
	if f.rateLimitStore.Name() != "memory" {
		t.Errorf("want fallback to memory, got %s", f.rateLimitStore.Name())
	}
	f.Close()

	cfg.Environment = config.EnvProduction
	if _, err := New(cfg); err == nil {
		t.Fatal("production should refuse to start without Redis")
	}
}
