package events

import (
	"context"
	"encoding/json"
	"fmt"

	"contact-relay/internal/bucketing"
	"contact-relay/internal/models"

	"go.uber.org/zap"
)

// Publisher ships submission audit events somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, event *models.SubmissionEvent) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// MessageProducer is the part of the Kafka producer the publisher uses.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.SubmissionEvent) error { return nil }
func (NopPublisher) HealthCheck(context.Context) error                      { return nil }
func (NopPublisher) Close() error                                           { return nil }

// KafkaPublisher writes events as JSON keyed by client bucket, so one
// client's events stay ordered within a partition.
type KafkaPublisher struct {
	producer  MessageProducer
	topic     string
	bucketing *bucketing.BucketingManager
	logger    *zap.Logger
}

func NewKafkaPublisher(producer MessageProducer, topic string, bm *bucketing.BucketingManager, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		producer:  producer,
		topic:     topic,
		bucketing: bm,
		logger:    logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *models.SubmissionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal submission event: %w", err)
	}

	headers := map[string]string{
		"event_type": "contact.submission",
		"outcome":    event.Outcome,
	}
	key := p.bucketing.PartitionKey(event.ClientBucket)

	if err := p.producer.ProduceMessage(ctx, p.topic, key, value, headers); err != nil {
		return fmt.Errorf("failed to publish submission event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) HealthCheck(ctx context.Context) error {
	return p.producer.HealthCheck(ctx)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
