package events

import (
	"context"
	"time"

	"contact-relay/internal/bucketing"
	"contact-relay/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder turns request outcomes into audit events. The client
// identifier is reduced to its bucket before anything leaves the process.
type Recorder struct {
	publisher Publisher
	bucketing *bucketing.BucketingManager
	clock     func() time.Time
	logger    *zap.Logger
}

func NewRecorder(publisher Publisher, bm *bucketing.BucketingManager, clock func() time.Time, logger *zap.Logger) *Recorder {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		publisher: publisher,
		bucketing: bm,
		clock:     clock,
		logger:    logger,
	}
}

// Record publishes one event. Failures are logged and otherwise ignored;
// auditing never changes the response.
func (r *Recorder) Record(ctx context.Context, clientKey, requestID, outcome, reason string, status int) {
	event := &models.SubmissionEvent{
		EventID:      uuid.NewString(),
		RequestID:    requestID,
		Outcome:      outcome,
		Reason:       reason,
		StatusCode:   status,
		ClientBucket: r.bucketing.GetEventBucket(clientKey),
		OccurredAt:   r.clock().UTC(),
	}

	if err := r.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		r.logger.Warn("Failed to publish submission event",
			zap.String("event_id", event.EventID),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
}

func (r *Recorder) HealthCheck(ctx context.Context) error {
	return r.publisher.HealthCheck(ctx)
}
