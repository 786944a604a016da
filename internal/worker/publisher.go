package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher enqueues pipeline jobs on a Pub/Sub topic for workers to pick up.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// PublisherConfig holds configuration for the job publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPublisher creates a Pub/Sub job publisher.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger.With().Str("component", "job_publisher").Logger(),
	}, nil
}

// Publish sends a job message and waits for the broker's acknowledgement.
func (p *Publisher) Publish(ctx context.Context, job JobMessage) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("job_type", job.JobType).
		Str("run_id", job.RunID).
		Msg("job published")

	return nil
}

// Close stops the publisher and releases the client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
