package ratelimit

import (
	"context"
	"errors"
	"time"

	"contact-relay/internal/models"

	"go.uber.org/zap"
)

// ErrUnidentifiedClient is returned when the reject policy is active and
// no client identifier could be derived.
var ErrUnidentifiedClient = errors.New("client identifier unavailable")

// Store is a rate-limit table. Hit must perform the check and the
// increment atomically for key.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (models.RateLimitDecision, error)
	HealthCheck(ctx context.Context) error
	Name() string
}

type Options struct {
	MaxPerWindow int
	Window       time.Duration
	// RejectUnknown fails closed for requests keyed as UnknownClient.
	RejectUnknown bool
	Clock         Clock
}

// Limiter caps submission attempts per client within a fixed window,
// regardless of what happens to the request afterwards.
type Limiter struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

func NewLimiter(store Store, opts Options, logger *zap.Logger) *Limiter {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{store: store, opts: opts, logger: logger}
}

// Allow records one attempt for clientKey. A store failure is logged and
// the attempt is allowed.
func (l *Limiter) Allow(ctx context.Context, clientKey string) (models.RateLimitDecision, error) {
	if clientKey == UnknownClient && l.opts.RejectUnknown {
		return models.RateLimitDecision{
			Limit:     l.opts.MaxPerWindow,
			ResetTime: l.opts.Clock().Add(l.opts.Window),
		}, ErrUnidentifiedClient
	}

	decision, err := l.store.Hit(ctx, clientKey, l.opts.MaxPerWindow, l.opts.Window)
	if err != nil {
		l.logger.Error("Rate limit store failed, allowing request",
			zap.String("store", l.store.Name()),
			zap.Error(err))
		return models.RateLimitDecision{Allowed: true, Limit: l.opts.MaxPerWindow}, nil
	}

	if !decision.Allowed {
		l.logger.Warn("Rate limit exceeded",
			zap.String("client", clientKey),
			zap.Int("count", decision.Count),
			zap.Int("limit", decision.Limit),
			zap.Time("reset_time", decision.ResetTime))
	}
	return decision, nil
}

func (l *Limiter) HealthCheck(ctx context.Context) error {
	return l.store.HealthCheck(ctx)
}

func (l *Limiter) Now() time.Time {
	return l.opts.Clock()
}
