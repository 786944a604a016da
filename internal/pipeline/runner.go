package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/climatlas/climatlas/internal/climate"
	"github.com/climatlas/climatlas/internal/run"
)

const meterName = "github.com/climatlas/climatlas/internal/pipeline"

// Metrics holds the runner's OpenTelemetry instruments.
type Metrics struct {
	stepDuration metric.Float64Histogram
	stepTotal    metric.Int64Counter
	runTotal     metric.Int64Counter
}

// NewMetrics creates the runner metrics.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	stepDuration, err := meter.Float64Histogram(
		"pipeline.step.duration",
		metric.WithDescription("Duration of pipeline steps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepTotal, err := meter.Int64Counter(
		"pipeline.step.total",
		metric.WithDescription("Total number of pipeline step executions"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	runTotal, err := meter.Int64Counter(
		"pipeline.run.total",
		metric.WithDescription("Total number of pipeline runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		stepDuration: stepDuration,
		stepTotal:    stepTotal,
		runTotal:     runTotal,
	}, nil
}

func (m *Metrics) recordStep(ctx context.Context, name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("pipeline.step", name)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.stepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) recordRun(ctx context.Context, workflow string, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("pipeline.workflow", workflow)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	Logger  zerolog.Logger
	Metrics *Metrics
}

// Runner executes a workflow's steps in order, recording each step's outcome
// and the run's final status in the run repository.
type Runner struct {
	steps   []Step
	repo    run.Repository
	logger  zerolog.Logger
	metrics *Metrics
}

// NewRunner creates a runner over the given steps.
func NewRunner(steps []Step, repo run.Repository, cfg RunnerConfig) *Runner {
	return &Runner{
		steps:   steps,
		repo:    repo,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Steps returns the runner's steps in execution order.
func (r *Runner) Steps() []Step { return r.steps }

// Context builds a step RunContext from a stored run.
func Context(rn *run.Run) (RunContext, error) {
	start, err := climate.ParseDate(rn.Start)
	if err != nil {
		return RunContext{}, fmt.Errorf("run %s: start: %w", rn.ID, err)
	}
	end, err := climate.ParseDate(rn.End)
	if err != nil {
		return RunContext{}, fmt.Errorf("run %s: end: %w", rn.ID, err)
	}
	return RunContext{
		RunID:  rn.ID,
		Folder: rn.Folder,
		State:  rn.State,
		County: rn.County,
		Start:  start,
		End:    end,
	}, nil
}

// Execute runs the whole workflow for a stored run. The first failing step
// fails the run; completed steps keep their recorded results.
func (r *Runner) Execute(ctx context.Context, rn *run.Run) error {
	rc, err := Context(rn)
	if err != nil {
		r.finish(ctx, rn, err)
		return err
	}

	if err := r.repo.UpdateStatus(ctx, rn.ID, run.StatusRunning, ""); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	for _, step := range r.steps {
		if err := r.ExecuteStep(ctx, step, rc); err != nil {
			r.finish(ctx, rn, err)
			return err
		}
	}

	r.finish(ctx, rn, nil)
	return nil
}

// ExecuteStep runs one step and records its result.
func (r *Runner) ExecuteStep(ctx context.Context, step Step, rc RunContext) error {
	started := time.Now().UTC()
	logger := r.logger.With().
		Str("run_id", rc.RunID).
		Str("step", step.Name()).
		Logger()
	logger.Info().Msg("step started")

	artifacts, err := step.Run(ctx, rc)
	finished := time.Now().UTC()
	r.metrics.recordStep(ctx, step.Name(), finished.Sub(started), err)

	result := run.StepResult{
		RunID:      rc.RunID,
		Name:       step.Name(),
		Status:     run.StatusSucceeded,
		Artifacts:  artifacts,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err != nil {
		result.Status = run.StatusFailed
		result.Error = err.Error()
	}
	if recErr := r.repo.RecordStep(ctx, result); recErr != nil {
		logger.Error().Err(recErr).Msg("failed to record step result")
	}

	if err != nil {
		logger.Error().Err(err).Dur("duration", finished.Sub(started)).Msg("step failed")
		return fmt.Errorf("step %s: %w", step.Name(), err)
	}
	logger.Info().
		Dur("duration", finished.Sub(started)).
		Strs("artifacts", artifacts).
		Msg("step completed")
	return nil
}

// StepNamed finds a step by name for single-step dispatch.
func (r *Runner) StepNamed(name string) (Step, error) {
	for _, s := range r.steps {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

func (r *Runner) finish(ctx context.Context, rn *run.Run, runErr error) {
	status := run.StatusSucceeded
	msg := ""
	if runErr != nil {
		status = run.StatusFailed
		msg = runErr.Error()
	}
	r.metrics.recordRun(ctx, rn.Workflow, runErr)

	if err := r.repo.UpdateStatus(ctx, rn.ID, status, msg); err != nil {
		r.logger.Error().Err(err).Str("run_id", rn.ID).Msg("failed to update run status")
	}

	event := r.logger.Info()
	if runErr != nil {
		event = r.logger.Error().Err(runErr)
	}
	event.Str("run_id", rn.ID).Str("status", string(status)).Msg("run finished")
}
