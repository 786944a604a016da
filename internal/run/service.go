package run

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/climate"
)

// ErrInvalidParams indicates a run request with missing or bad parameters.
var ErrInvalidParams = errors.New("invalid run parameters")

// Params are the user-supplied inputs for a new run.
type Params struct {
	Workflow string `json:"workflow"`
	State    string `json:"state"`
	County   string `json:"county"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// DefaultWorkflow is used when a request does not name a workflow.
const DefaultWorkflow = "temperature-heatmap"

// ServiceConfig holds configuration for the run service.
type ServiceConfig struct {
	// BaseFolder is the bucket prefix all run folders live under.
	// Default: "runs".
	BaseFolder string

	// Logger for run lifecycle events.
	Logger zerolog.Logger
}

// Service creates and queries runs.
type Service struct {
	repo       Repository
	baseFolder string
	logger     zerolog.Logger
}

// NewService creates a run service backed by the given repository.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	baseFolder := cfg.BaseFolder
	if baseFolder == "" {
		baseFolder = "runs"
	}
	return &Service{
		repo:       repo,
		baseFolder: baseFolder,
		logger:     cfg.Logger,
	}
}

// Start validates the parameters and records a new pending run. Artifacts of
// concurrent runs never collide because each run gets its own folder keyed
// by its ID.
func (s *Service) Start(ctx context.Context, p Params) (*Run, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	if p.Workflow == "" {
		p.Workflow = DefaultWorkflow
	}

	now := time.Now().UTC()
	r := &Run{
		ID:        uuid.NewString(),
		Workflow:  p.Workflow,
		State:     p.State,
		County:    p.County,
		Start:     p.Start,
		End:       p.End,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Folder = path.Join(s.baseFolder, r.ID)

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	s.logger.Info().
		Str("run_id", r.ID).
		Str("workflow", r.Workflow).
		Str("state", r.State).
		Str("county", r.County).
		Msg("run created")

	return r, nil
}

// Get retrieves a run by ID.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

// List returns recent runs, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	return s.repo.List(ctx, opts)
}

func validate(p Params) error {
	if p.State == "" || p.County == "" {
		return fmt.Errorf("%w: state and county are required", ErrInvalidParams)
	}

	start, err := climate.ParseDate(p.Start)
	if err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidParams, err)
	}
	end, err := climate.ParseDate(p.End)
	if err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidParams, err)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start is after end", ErrInvalidParams)
	}
	return nil
}
