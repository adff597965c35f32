package factory

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contact-relay/internal/bucketing"
	"contact-relay/internal/client"
	"contact-relay/internal/config"
	"contact-relay/internal/events"
	"contact-relay/internal/handler"
	"contact-relay/internal/mailer"
	"contact-relay/internal/models"
	"contact-relay/internal/ratelimit"
	"contact-relay/internal/service"
	"contact-relay/internal/tls"
	"contact-relay/internal/util"

	"golang.org/x/sync/errgroup"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Managers
	bucketingManager *bucketing.BucketingManager
	rateLimitStore   ratelimit.Store
	limiter          *ratelimit.Limiter
	sender           *mailer.ZeptoMailClient
	publisher        events.Publisher
	recorder         *events.Recorder

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory loads configuration and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg)
}

// New builds the dependency graph for an already loaded configuration.
func New(cfg *config.Config) (*Factory, error) {
	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		factory.tlsManager = tls.NewTLSManager(tls.TLSConfigFromServer(cfg.Environment, cfg.Server))
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeManagers()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.String("rate_limit_store", factory.rateLimitStore.Name()),
		util.Bool("events_enabled", factory.kafkaProducer != nil),
		util.Bool("provider_configured", cfg.ProviderConfigured()),
	)

	if !cfg.ProviderConfigured() {
		util.Warn("ZEPTO_API_TOKEN is not set; submissions will fail with a configuration error")
	}

	return factory, nil
}

// initializeClients connects the optional Redis and Kafka clients in parallel
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if f.config.RateLimit.Backend == config.BackendRedis {
		g.Go(func() error {
			c, err := client.NewRedisClient(f.config, util.Get())
			if err != nil {
				return f.optional("redis", err)
			}
			if err := c.HealthCheck(gctx); err != nil {
				c.Close()
				return f.optional("redis", err)
			}
			f.redisClient = c
			return nil
		})
	}

	if f.config.Kafka.Enabled {
		g.Go(func() error {
			p, err := client.NewKafkaProducer(f.config, util.Get())
			if err != nil {
				util.Warn("Kafka producer initialization failed - proceeding without audit events", util.ErrorField(err))
				return nil
			}
			f.kafkaProducer = p
			return nil
		})
	}

	return g.Wait()
}

// optional fails startup in production and degrades elsewhere.
func (f *Factory) optional(name string, err error) error {
	if f.config.IsProduction() {
		return fmt.Errorf("%s: %w", name, err)
	}
	util.Warn("Service initialization warning",
		util.String("dependency", name),
		util.ErrorField(err))
	return nil
}

// initializeManagers wires the rate limiter, mailer and audit trail
func (f *Factory) initializeManagers() {
	cfg := f.config

	f.bucketingManager = bucketing.NewBucketingManager(cfg)

	if f.redisClient != nil {
		f.rateLimitStore = ratelimit.NewRedisStore(f.redisClient, time.Now)
	} else {
		if cfg.RateLimit.Backend == config.BackendRedis {
			util.Warn("Falling back to in-memory rate limiting")
		}
		f.rateLimitStore = ratelimit.NewMemoryStore(time.Now)
	}

	f.limiter = ratelimit.NewLimiter(f.rateLimitStore, ratelimit.Options{
		MaxPerWindow:  cfg.RateLimit.MaxPerWindow,
		Window:        cfg.RateLimit.Window,
		RejectUnknown: cfg.RateLimit.UnknownPolicy == config.UnknownPolicyReject,
		Clock:         time.Now,
	}, util.Get())

	f.sender = mailer.NewZeptoMailClient(cfg.Provider, util.Get())

	if f.kafkaProducer != nil {
		f.publisher = events.NewKafkaPublisher(f.kafkaProducer, cfg.Kafka.Topic, f.bucketingManager, util.Get())
	} else {
		f.publisher = events.NopPublisher{}
	}
	f.recorder = events.NewRecorder(f.publisher, f.bucketingManager, time.Now, util.Get())

	util.Info("Managers initialized successfully",
		util.Int("event_buckets", f.bucketingManager.GetEventBuckets()),
		util.Int("rate_limit_max", cfg.RateLimit.MaxPerWindow),
		util.Duration("rate_limit_window", cfg.RateLimit.Window),
		util.String("unknown_client_policy", cfg.RateLimit.UnknownPolicy),
	)
}

// ==============================
// Service Factory
// ==============================
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		relay := f.config.Relay
		f.serviceFactory = service.NewServiceFactory(
			f.limiter,
			f.sender,
			service.RelayOptions{
				Identity: mailer.Identity{
					From: models.EmailAddress{Address: relay.FromAddress, Name: relay.FromName},
					To:   models.EmailAddress{Address: relay.ToAddress, Name: relay.ToName},
					Site: relay.SiteName,
				},
				Location: relay.SubjectLocation,
				Clock:    time.Now,
			},
			util.Get(),
		)
	}
	return f.serviceFactory
}

// ==============================
// Health Checks
// ==============================

// HealthCheck reports unhealthy dependencies; an empty map means ready.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.rateLimitStore == nil {
		healthErrors["rate_limit_store"] = fmt.Errorf("rate limit store not initialized")
	} else if err := f.rateLimitStore.HealthCheck(ctx); err != nil {
		healthErrors["rate_limit_store"] = err
	}

	if f.publisher != nil {
		if err := f.publisher.HealthCheck(ctx); err != nil {
			healthErrors["events"] = err
		}
	}

	if f.bucketingManager == nil {
		healthErrors["bucketing"] = fmt.Errorf("bucketing manager not initialized")
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	return len(f.HealthCheck(ctx)) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.publisher != nil {
			if err := f.publisher.Close(); err != nil {
				util.Error("Failed to close event publisher", util.ErrorField(err))
			}
		}

		if f.serviceFactory != nil {
			f.serviceFactory.Cleanup()
			util.Info("Service factory cleaned up")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		util.Info("Factory shutdown completed")
		util.Sync()
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) Recorder() *events.Recorder {
	return f.recorder
}

// Router builds the HTTP handler served by every entrypoint.
func (f *Factory) Router(serviceName string) http.Handler {
	relay := f.ServiceFactory().RelayService()
	contactHandler := handler.NewContactHandler(relay, f.recorder, f.config.Relay.MaxRequestBytes, util.Get())
	healthHandler := handler.NewHealthHandler(f, serviceName)
	return handler.NewRouter(f.config, contactHandler, healthHandler, util.Get())
}

func (f *Factory) BucketingManager() *bucketing.BucketingManager {
	return f.bucketingManager
}
