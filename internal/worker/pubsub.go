// Package worker runs pipeline jobs delivered over Pub/Sub.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/pipeline"
	"github.com/climatlas/climatlas/internal/run"
)

// Job types accepted by the worker.
const (
	// JobRun executes the whole workflow for a run.
	JobRun = "run"
	// JobStep executes a single named step of a run.
	JobStep = "step"
)

// JobMessage is the payload of a pipeline job.
type JobMessage struct {
	JobType string `json:"job_type"`
	RunID   string `json:"run_id"`
	// Step names the pipeline step for JobStep messages.
	Step string `json:"step,omitempty"`
}

// Dispatcher maps job messages to runner executions. It is the transport-free
// core of the worker.
type Dispatcher struct {
	runner *pipeline.Runner
	runs   run.Repository
}

// NewDispatcher creates a job dispatcher.
func NewDispatcher(runner *pipeline.Runner, runs run.Repository) *Dispatcher {
	return &Dispatcher{runner: runner, runs: runs}
}

// Handle executes one job message.
func (d *Dispatcher) Handle(ctx context.Context, job JobMessage) error {
	rn, err := d.runs.Get(ctx, job.RunID)
	if err != nil {
		return err
	}

	switch job.JobType {
	case JobRun, "":
		return d.runner.Execute(ctx, rn)
	case JobStep:
		step, err := d.runner.StepNamed(job.Step)
		if err != nil {
			return err
		}
		rc, err := pipeline.Context(rn)
		if err != nil {
			return err
		}
		return d.runner.ExecuteStep(ctx, step, rc)
	default:
		return fmt.Errorf("%w: job type %q", pipeline.ErrUnknownStep, job.JobType)
	}
}

// PubSubHandler consumes job messages and drives the pipeline runner.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One run at a time per worker: a full pipeline downloads hundreds of
	// station archives, and extensions cover the long plot step.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 30 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	err := h.dispatcher.Handle(ctx, job)
	switch {
	case errors.Is(err, run.ErrRunNotFound) || errors.Is(err, pipeline.ErrUnknownStep):
		// Redelivery cannot fix these.
		logger.Warn().Err(err).Msg("dropping unprocessable job")
		msg.Ack()
		return
	case err != nil:
		logger.Error().Err(err).Str("run_id", job.RunID).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", job.JobType).
		Str("run_id", job.RunID).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}
