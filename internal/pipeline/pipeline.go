// Package pipeline implements the weather workflow: fetch boundaries and
// stations, fetch observations, derive climate baselines, and render the
// interpolated temperature heatmap. Each step reads its inputs from the run's
// artifact folder and writes its outputs back there, so steps can run in
// separate worker invocations.
package pipeline

import (
	"context"
	"errors"
	"time"
)

// Artifact names written to the run folder.
const (
	ArtifactState         = "state.geojson"
	ArtifactCounty        = "county.geojson"
	ArtifactOuterBoundary = "outer_boundary.geojson"
	ArtifactStations      = "stations.geojson"
	ArtifactTemperature   = "temperature.geojson"
	ArtifactHeatmap       = "TemperatureHeatmap.png"
)

// Step names, used for dispatch and run bookkeeping.
const (
	StepFetchGeoData     = "fetch-geo-data"
	StepFetchStationData = "fetch-station-data"
	StepProcessBaseline  = "process-baseline"
	StepPlotHeatmap      = "plot-heatmap"
)

// ErrUnknownStep indicates a dispatch request for a step that is not
// registered.
var ErrUnknownStep = errors.New("unknown pipeline step")

// RunContext carries the parameters of one run into its steps.
type RunContext struct {
	// RunID identifies the run.
	RunID string

	// Folder is the bucket prefix the run's artifacts live under.
	Folder string

	// State and County name the region of interest.
	State  string
	County string

	// Start and End bound the observation period, inclusive.
	Start time.Time
	End   time.Time
}

// Step is one unit of pipeline work. Run returns the names of the artifacts
// it wrote to the run folder.
type Step interface {
	Name() string
	Run(ctx context.Context, rc RunContext) ([]string, error)
}
