package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/geo"
	"github.com/climatlas/climatlas/internal/ghcnd"
	"github.com/climatlas/climatlas/internal/stations"
	"github.com/climatlas/climatlas/internal/storage"
)

// DefaultBufferDegrees pads the county envelope for station selection, so the
// interpolation has samples beyond the plotted area.
const DefaultBufferDegrees = 0.5

const geoJSONContentType = "application/geo+json"

// BoundarySource resolves named state and county regions.
type BoundarySource interface {
	StateRegion(ctx context.Context, stateName string) (geo.Region, error)
	CountyRegion(ctx context.Context, stateName, countyName string) (geo.Region, error)
}

// InventorySource lists the observation network's stations.
type InventorySource interface {
	FetchInventory(ctx context.Context) ([]stations.Station, error)
}

// GeoDataConfig holds configuration for the geo-data step.
type GeoDataConfig struct {
	// BufferDegrees pads the county envelope. Default: 0.5. A negative
	// value selects no buffer at all, keeping the envelope tight.
	BufferDegrees float64

	// MinLastYearAgo picks the inventory cutoff: stations must report at
	// least into the year this long before now. Default: 7 days, so early
	// January still accepts stations whose inventory ends in the prior year.
	MinLastYearAgo time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time

	Logger zerolog.Logger
}

// FetchGeoData resolves the region boundaries, selects the active stations
// inside the buffered envelope, and writes both as GeoJSON artifacts.
type FetchGeoData struct {
	boundaries BoundarySource
	inventory  InventorySource
	store      *storage.Store
	cfg        GeoDataConfig
}

// NewFetchGeoData creates the geo-data step.
func NewFetchGeoData(boundaries BoundarySource, inventory InventorySource, store *storage.Store, cfg GeoDataConfig) *FetchGeoData {
	if cfg.BufferDegrees == 0 {
		cfg.BufferDegrees = DefaultBufferDegrees
	} else if cfg.BufferDegrees < 0 {
		cfg.BufferDegrees = 0
	}
	if cfg.MinLastYearAgo == 0 {
		cfg.MinLastYearAgo = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FetchGeoData{
		boundaries: boundaries,
		inventory:  inventory,
		store:      store,
		cfg:        cfg,
	}
}

// Name implements Step.
func (s *FetchGeoData) Name() string { return StepFetchGeoData }

// Run implements Step.
func (s *FetchGeoData) Run(ctx context.Context, rc RunContext) ([]string, error) {
	state, err := s.boundaries.StateRegion(ctx, rc.State)
	if err != nil {
		return nil, fmt.Errorf("resolve state: %w", err)
	}
	county, err := s.boundaries.CountyRegion(ctx, rc.State, rc.County)
	if err != nil {
		return nil, fmt.Errorf("resolve county: %w", err)
	}

	outer, err := geo.OuterBoundary(county, s.cfg.BufferDegrees)
	if err != nil {
		return nil, fmt.Errorf("outer boundary: %w", err)
	}
	bound := outer.Bound()
	s.cfg.Logger.Info().
		Str("run_id", rc.RunID).
		Floats64("bbox", []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}).
		Msg("computed outer boundary")

	candidates, err := s.inventory.FetchInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	cutoffYear := s.cfg.Now().Add(-s.cfg.MinLastYearAgo).Year()
	selected := stations.Select(candidates, stations.Filter{
		Boundary:         outer,
		RequiredElements: []string{ghcnd.ElementTMax, ghcnd.ElementTMin},
		MinLastYear:      cutoffYear,
	})
	s.cfg.Logger.Info().
		Str("run_id", rc.RunID).
		Int("candidates", len(candidates)).
		Int("selected", len(selected)).
		Int("cutoff_year", cutoffYear).
		Msg("selected stations")

	artifacts := []struct {
		name string
		fc   *geojson.FeatureCollection
	}{
		{ArtifactState, regionCollection(state)},
		{ArtifactCounty, regionCollection(county)},
		{ArtifactOuterBoundary, boundaryCollection(outer)},
		{ArtifactStations, stationCollection(selected)},
	}

	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		data, err := a.fc.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.name, err)
		}
		if err := s.store.Put(ctx, rc.Folder, a.name, data, geoJSONContentType); err != nil {
			return nil, err
		}
		names = append(names, a.name)
	}
	return names, nil
}
