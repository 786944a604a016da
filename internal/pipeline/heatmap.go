package pipeline

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/geo"
	"github.com/climatlas/climatlas/internal/interp"
	"github.com/climatlas/climatlas/internal/render"
	"github.com/climatlas/climatlas/internal/storage"
)

// HeatmapConfig holds configuration for the heatmap step.
type HeatmapConfig struct {
	// Resolution is the number of samples per grid axis. Default: 100.
	Resolution int

	// Method selects the interpolation scheme. Default: cubic.
	Method interp.Method

	Logger zerolog.Logger
}

// PlotHeatmap interpolates the per-station mean temperatures over the outer
// boundary's grid and renders a TMIN and a TMAX panel side by side.
type PlotHeatmap struct {
	store *storage.Store
	cfg   HeatmapConfig
}

// NewPlotHeatmap creates the heatmap step.
func NewPlotHeatmap(store *storage.Store, cfg HeatmapConfig) *PlotHeatmap {
	if cfg.Resolution == 0 {
		cfg.Resolution = interp.DefaultResolution
	}
	return &PlotHeatmap{store: store, cfg: cfg}
}

// Name implements Step.
func (s *PlotHeatmap) Name() string { return StepPlotHeatmap }

// Run implements Step.
func (s *PlotHeatmap) Run(ctx context.Context, rc RunContext) ([]string, error) {
	outer, err := loadRegion(ctx, s.store, rc.Folder, ArtifactOuterBoundary)
	if err != nil {
		return nil, err
	}
	state, err := loadRegion(ctx, s.store, rc.Folder, ArtifactState)
	if err != nil {
		return nil, err
	}
	county, err := loadRegion(ctx, s.store, rc.Folder, ArtifactCounty)
	if err != nil {
		return nil, err
	}
	temps, err := loadTemperature(ctx, s.store, rc.Folder)
	if err != nil {
		return nil, err
	}

	bound, err := geo.Bounds(outer)
	if err != nil {
		return nil, fmt.Errorf("outer boundary: %w", err)
	}
	grid := interp.NewGrid(bound, s.cfg.Resolution)

	points := make([]orb.Point, len(temps))
	tmin := make([]float64, len(temps))
	tmax := make([]float64, len(temps))
	for i, row := range temps {
		points[i] = row.Point
		tmin[i] = row.TMin
		tmax[i] = row.TMax
	}

	minField, err := interp.Interpolate(points, tmin, grid, s.cfg.Method)
	if err != nil {
		return nil, fmt.Errorf("interpolate TMIN: %w", err)
	}
	maxField, err := interp.Interpolate(points, tmax, grid, s.cfg.Method)
	if err != nil {
		return nil, fmt.Errorf("interpolate TMAX: %w", err)
	}

	boundaries := append(append([]orb.Geometry(nil), state.Features...), county.Features...)
	panels := []render.Panel{
		{
			Title:      "Minimum Temperature Heatmap (°C)",
			Grid:       grid,
			Field:      minField,
			Stations:   points,
			Boundaries: boundaries,
		},
		{
			Title:      "Maximum Temperature Heatmap (°C)",
			Grid:       grid,
			Field:      maxField,
			Stations:   points,
			Boundaries: boundaries,
		},
	}

	png, err := render.TemperaturePNG(panels)
	if err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}
	if err := s.store.Put(ctx, rc.Folder, ArtifactHeatmap, png, "image/png"); err != nil {
		return nil, err
	}

	s.cfg.Logger.Info().
		Str("run_id", rc.RunID).
		Int("stations", len(points)).
		Int("resolution", s.cfg.Resolution).
		Msg("rendered temperature heatmap")

	return []string{ArtifactHeatmap}, nil
}
