package service

import (
	"contact-relay/internal/mailer"
	"contact-relay/internal/ratelimit"

	"go.uber.org/zap"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	limiter      *ratelimit.Limiter
	sender       mailer.Sender
	relayOptions RelayOptions
	logger       *zap.Logger
	relayService *RelayService
}

func NewServiceFactory(
	limiter *ratelimit.Limiter,
	sender mailer.Sender,
	relayOptions RelayOptions,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		limiter:      limiter,
		sender:       sender,
		relayOptions: relayOptions,
		logger:       logger,
	}
}

// RelayService returns the relay service instance (singleton)
func (f *ServiceFactory) RelayService() *RelayService {
	if f.relayService == nil {
		f.relayService = NewRelayService(
			f.limiter,
			f.sender,
			f.relayOptions,
			f.logger,
		)
	}
	return f.relayService
}

// Cleanup drops the cached services.
func (f *ServiceFactory) Cleanup() {
	f.relayService = nil
}
