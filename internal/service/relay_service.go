package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-relay/internal/mailer"
	"contact-relay/internal/models"
	"contact-relay/internal/ratelimit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrNotConfigured       = errors.New("email service not configured")
	ErrProviderRejected    = errors.New("email provider rejected the message")
	ErrProviderUnavailable = errors.New("email provider unavailable")
)

// configurable is implemented by senders that can tell up front whether a
// send is possible.
type configurable interface {
	Configured() bool
}

type RelayOptions struct {
	Identity mailer.Identity
	// Location for the subject timestamp; nil means time.Local.
	Location *time.Location
	Clock    func() time.Time
}

// RelayService validates contact submissions and forwards them to the
// email provider. It keeps nothing about a submission once Relay returns.
type RelayService struct {
	limiter *ratelimit.Limiter
	sender  mailer.Sender
	opts    RelayOptions
	logger  *zap.Logger
}

func NewRelayService(limiter *ratelimit.Limiter, sender mailer.Sender, opts RelayOptions, logger *zap.Logger) *RelayService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayService{
		limiter: limiter,
		sender:  sender,
		opts:    opts,
		logger:  logger,
	}
}

// Admit counts one attempt for clientKey. It runs before the body is read,
// so requests that later fail validation still use up quota.
func (s *RelayService) Admit(ctx context.Context, clientKey string) (models.RateLimitDecision, error) {
	decision, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		return decision, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	if !decision.Allowed {
		return decision, ErrRateLimited
	}
	return decision, nil
}

// Relay validates, sanitizes, builds and sends one submission. No provider
// call is made unless every check passes, and a failed send is not retried.
func (s *RelayService) Relay(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionAck, error) {
	if err := ValidateSubmission(&req); err != nil {
		return nil, err
	}
	clean := SanitizeSubmission(req)

	if c, ok := s.sender.(configurable); ok && !c.Configured() {
		s.logger.Error("Email provider token is not configured")
		return nil, ErrNotConfigured
	}

	requestID := uuid.NewString()
	subject := mailer.Subject(s.opts.Clock().In(s.opts.Location))

	payload, err := mailer.BuildPayload(s.opts.Identity, clean, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	start := time.Now()
	result, err := s.sender.Send(ctx, payload)
	if err != nil {
		return nil, s.mapSendError(requestID, err)
	}

	s.logger.Info("Contact submission relayed",
		zap.String("request_id", requestID),
		zap.String("subject", subject),
		zap.String("provider_request_id", result.ProviderRequestID),
		zap.Duration("duration", time.Since(start)),
	)

	return &models.SubmissionAck{RequestID: requestID, Subject: subject}, nil
}

// mapSendError logs the provider's detail and returns an error that
// carries none of it.
func (s *RelayService) mapSendError(requestID string, err error) error {
	var perr *mailer.ProviderError
	switch {
	case errors.Is(err, mailer.ErrNotConfigured):
		s.logger.Error("Email provider token is not configured", zap.String("request_id", requestID))
		return ErrNotConfigured
	case errors.As(err, &perr):
		s.logger.Error("Email provider rejected send",
			zap.String("request_id", requestID),
			zap.Int("status", perr.StatusCode),
			zap.String("provider_body", perr.Body),
		)
		return ErrProviderRejected
	default:
		s.logger.Error("Email provider call failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return ErrProviderUnavailable
	}
}

// Now is the service clock, shared with the limiter's view of time.
func (s *RelayService) Now() time.Time {
	return s.limiter.Now()
}

func (s *RelayService) HealthCheck(ctx context.Context) error {
	return s.limiter.HealthCheck(ctx)
}
