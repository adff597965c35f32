package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	UnknownPolicyShared = "shared"
	UnknownPolicyReject = "reject"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Relay       RelayConfig
	Provider    ProviderConfig
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Bucketing   BucketingConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	EnableTLS    bool
	AutoCert     bool
	Domain       string
	CertFile     string
	KeyFile      string
	AutoCertDir  string
	Email        string
	TLSPort      int
	RequireHTTPS bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// RelayConfig describes the contact endpoint and the fixed mail identities.
type RelayConfig struct {
	Path            string
	AllowedOrigins  []string
	FromAddress     string
	FromName        string
	ToAddress       string
	ToName          string
	SiteName        string
	SubjectLocation *time.Location
	MaxRequestBytes int64
}

type ProviderConfig struct {
	APIToken   string
	URL        string
	AuthScheme string
	Timeout    time.Duration
}

type RateLimitConfig struct {
	MaxPerWindow  int
	Window        time.Duration
	Backend       string
	UnknownPolicy string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int

	// TLS material for rediss:// URLs. The client pair is optional.
	TLSCAFile   string
	TLSCertFile string
	TLSKeyFile  string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type BucketingConfig struct {
	EventBuckets int
}

var defaultAllowedOrigins = []string{
	"https://www.t25apps.com",
	"https://t25apps.com",
	"https://t25apps.vercel.app",
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	l := &loader{}

	cfg := &Config{
		Environment: l.str("APP_ENV", EnvProduction),
		Server: ServerConfig{
			Port:         l.integer("SERVER_PORT", 8080),
			ReadTimeout:  l.duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: l.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  l.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			EnableTLS:    l.boolean("SERVER_ENABLE_TLS", false),
			AutoCert:     l.boolean("SERVER_AUTO_CERT", false),
			Domain:       l.str("SERVER_DOMAIN", ""),
			CertFile:     l.str("SERVER_CERT_FILE", ""),
			KeyFile:      l.str("SERVER_KEY_FILE", ""),
			AutoCertDir:  l.str("SERVER_AUTOCERT_DIR", "./certs"),
			Email:        l.str("SERVER_ACME_EMAIL", ""),
			TLSPort:      l.integer("SERVER_TLS_PORT", 8443),
			RequireHTTPS: l.boolean("SERVER_REQUIRE_HTTPS", false),
		},
		Logging: LoggingConfig{
			Level:  l.str("LOG_LEVEL", "info"),
			Format: l.str("LOG_FORMAT", "console"),
		},
		Relay: RelayConfig{
			Path:            l.str("RELAY_PATH", "/api/send-email"),
			AllowedOrigins:  l.list("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
			FromAddress:     l.str("ZEPTO_FROM_EMAIL", "noreply@t25apps.com"),
			FromName:        l.str("ZEPTO_FROM_NAME", "T25Apps Contact Form"),
			ToAddress:       l.str("CONTACT_TO_EMAIL", "contact@t25apps.com"),
			ToName:          l.str("CONTACT_TO_NAME", "T25Apps Team"),
			SiteName:        l.str("RELAY_SITE_NAME", "T25Apps"),
			SubjectLocation: l.location("SUBJECT_TIMEZONE"),
			MaxRequestBytes: int64(l.integer("RELAY_MAX_REQUEST_BYTES", 64<<10)),
		},
		Provider: ProviderConfig{
			APIToken:   l.str("ZEPTO_API_TOKEN", ""),
			URL:        l.str("ZEPTO_API_URL", "https://api.zeptomail.in/v1.1/email"),
			AuthScheme: l.str("ZEPTO_AUTH_SCHEME", "Zoho-enczapikey"),
			Timeout:    l.duration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			MaxPerWindow:  l.integer("RATE_LIMIT_MAX", 3),
			Window:        l.duration("RATE_LIMIT_WINDOW", 60*time.Second),
			Backend:       strings.ToLower(l.str("RATE_LIMIT_BACKEND", BackendMemory)),
			UnknownPolicy: strings.ToLower(l.str("RATE_LIMIT_UNKNOWN_POLICY", UnknownPolicyShared)),
		},
		Redis: RedisConfig{
			URL:      l.str("REDIS_URL", "redis://localhost:6379/0"),
			Password: l.str("REDIS_PASSWORD", ""),
			DB:       l.integer("REDIS_DB", 0),
			PoolSize: l.integer("REDIS_POOL_SIZE", 20),

			TLSCAFile:   l.str("REDIS_TLS_CA_FILE", "/app/certs/ca.crt"),
			TLSCertFile: l.str("REDIS_TLS_CERT_FILE", ""),
			TLSKeyFile:  l.str("REDIS_TLS_KEY_FILE", ""),
		},
		Kafka: KafkaConfig{
			Enabled: l.boolean("KAFKA_ENABLED", false),
			Brokers: l.list("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   l.str("KAFKA_TOPIC", "contact-relay.submissions"),
		},
		Bucketing: BucketingConfig{
			EventBuckets: l.integer("EVENT_BUCKETS", 64),
		},
	}

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(l.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. The provider token is not
// required: without it the relay still rate-limits and validates.
func (c *Config) Validate() error {
	var problems []string
	if c.RateLimit.MaxPerWindow < 1 {
		problems = append(problems, "RATE_LIMIT_MAX must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		problems = append(problems, "RATE_LIMIT_WINDOW must be positive")
	}
	switch c.RateLimit.Backend {
	case BackendMemory, BackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend))
	}
	switch c.RateLimit.UnknownPolicy {
	case UnknownPolicyShared, UnknownPolicyReject:
	default:
		problems = append(problems, fmt.Sprintf("unknown RATE_LIMIT_UNKNOWN_POLICY %q", c.RateLimit.UnknownPolicy))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.Bucketing.EventBuckets < 1 {
		problems = append(problems, "EVENT_BUCKETS must be at least 1")
	}
	if !strings.HasPrefix(c.Relay.Path, "/") {
		problems = append(problems, "RELAY_PATH must start with /")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ProviderConfigured reports whether outbound sends are possible.
func (c *Config) ProviderConfigured() bool {
	return c.Provider.APIToken != ""
}

// loader collects parse errors so every bad variable is reported at once.
type loader struct {
	errs []string
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: must be an integer", key))
		return def
	}
	return n
}

func (l *loader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: must be a boolean", key))
		return def
	}
	return b
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: must be a duration like 10s", key))
		return def
	}
	return d
}

func (l *loader) list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		out := make([]string, len(def))
		copy(out, def)
		return out
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l *loader) location(key string) *time.Location {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || strings.EqualFold(v, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s: unknown time zone %q", key, v))
		return time.Local
	}
	return loc
}
