// Package handler implements the API's HTTP handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/api/middleware"
	"github.com/climatlas/climatlas/internal/api/response"
	"github.com/climatlas/climatlas/internal/run"
	"github.com/climatlas/climatlas/internal/worker"
)

// JobPublisher enqueues pipeline jobs for the worker to pick up.
type JobPublisher interface {
	Publish(ctx context.Context, job worker.JobMessage) error
}

// CreateRunRequest is the body for POST /v1/runs.
type CreateRunRequest struct {
	Workflow string `json:"workflow,omitempty"`
	State    string `json:"state"`
	County   string `json:"county"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// RunListResponse is the body for GET /v1/runs.
type RunListResponse struct {
	Runs []*run.Run `json:"runs"`
}

// RunHandler serves the run endpoints.
type RunHandler struct {
	runs      *run.Service
	publisher JobPublisher
	logger    zerolog.Logger
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(runs *run.Service, publisher JobPublisher, logger zerolog.Logger) *RunHandler {
	return &RunHandler{
		runs:      runs,
		publisher: publisher,
		logger:    logger.With().Str("component", "run_handler").Logger(),
	}
}

// Create handles POST /v1/runs. It registers the run and enqueues it for the
// worker, returning 202 Accepted with the run's location.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	created, err := h.runs.Start(r.Context(), run.Params{
		Workflow: req.Workflow,
		State:    req.State,
		County:   req.County,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		if errors.Is(err, run.ErrInvalidParams) {
			response.BadRequest(w, r, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("failed to create run")
		response.InternalError(w, r, "failed to create run")
		return
	}

	job := worker.JobMessage{JobType: worker.JobRun, RunID: created.ID}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("run_id", created.ID).Msg("failed to enqueue run")
		response.ServiceUnavailable(w, r, "run registered but could not be scheduled")
		return
	}

	h.logger.Info().
		Str("run_id", created.ID).
		Str("subject", middleware.GetSubject(r.Context())).
		Str("state", created.State).
		Str("county", created.County).
		Msg("run accepted")

	response.Accepted(w, r, "/v1/runs/"+created.ID, created)
}

// Get handles GET /v1/runs/{runId}.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	found, err := h.runs.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			response.NotFound(w, r, "run not found")
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("failed to load run")
		response.InternalError(w, r, "failed to load run")
		return
	}

	response.JSON(w, r, http.StatusOK, found)
}

// List handles GET /v1/runs.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List(r.Context(), run.ListOptions{})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list runs")
		response.InternalError(w, r, "failed to list runs")
		return
	}

	response.JSON(w, r, http.StatusOK, RunListResponse{Runs: runs})
}
