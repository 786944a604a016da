// Package run tracks pipeline executions: which workflow ran, over which
// region and period, what each step produced, and how it ended.
package run

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for run tracking.
var (
	// ErrRunNotFound indicates the run ID does not exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunExists indicates a create with an ID already in use.
	ErrRunExists = errors.New("run already exists")
)

// Status is the lifecycle state of a run or a step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one execution of a workflow.
type Run struct {
	ID       string `json:"id"`
	Workflow string `json:"workflow"`

	// Region and period parameters the run was triggered with.
	State  string `json:"state"`
	County string `json:"county"`
	Start  string `json:"start"`
	End    string `json:"end"`

	// Folder is the bucket prefix the run's artifacts live under.
	Folder string `json:"folder"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Steps []StepResult `json:"steps,omitempty"`
}

// StepResult is the outcome of one pipeline step within a run.
type StepResult struct {
	RunID      string    `json:"-"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Artifacts  []string  `json:"artifacts,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ListOptions controls run listing.
type ListOptions struct {
	// Limit caps the number of runs returned. Zero means the default of 50.
	Limit int
}

// Repository stores runs and their step results.
type Repository interface {
	Create(ctx context.Context, r *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, opts ListOptions) ([]*Run, error)
	UpdateStatus(ctx context.Context, id string, status Status, runErr string) error
	RecordStep(ctx context.Context, step StepResult) error
}
