// Package census loads US state and county boundaries from the Census
// Bureau's cartographic boundary files (GeoJSON rendition) and resolves
// them into named regions.
package census

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/climatlas/climatlas/internal/fetch"
	"github.com/climatlas/climatlas/internal/geo"
)

const (
	// DefaultStateURL is the 2010 5m-resolution state boundary collection.
	DefaultStateURL = "https://eric.clst.org/assets/wiki/uploads/Stuff/gz_2010_us_040_00_5m.json"

	// DefaultCountyURL is the 2010 5m-resolution county boundary collection.
	DefaultCountyURL = "https://eric.clst.org/assets/wiki/uploads/Stuff/gz_2010_us_050_00_5m.json"

	// SourceName identifies this upstream for breaker naming and logs.
	SourceName = "census"

	// nameProperty is the feature property carrying the boundary's name.
	nameProperty = "NAME"
)

// ErrBoundaryNotFound indicates no feature matched the requested name.
var ErrBoundaryNotFound = errors.New("boundary not found")

// ClientConfig holds configuration for the boundary client.
type ClientConfig struct {
	// StateURL overrides the state collection URL (for tests).
	StateURL string

	// CountyURL overrides the county collection URL (for tests).
	CountyURL string

	// Fetcher performs the HTTP calls. If nil, a resilient fetch client
	// with defaults is created.
	Fetcher *fetch.Client
}

// Client downloads and caches the boundary collections. Both collections are
// a few megabytes and never change, so they are fetched at most once per
// client.
type Client struct {
	stateURL  string
	countyURL string
	fetcher   *fetch.Client

	mu       sync.Mutex
	states   *geojson.FeatureCollection
	counties *geojson.FeatureCollection
}

// NewClient creates a boundary client.
func NewClient(cfg ClientConfig) *Client {
	stateURL := cfg.StateURL
	if stateURL == "" {
		stateURL = DefaultStateURL
	}
	countyURL := cfg.CountyURL
	if countyURL == "" {
		countyURL = DefaultCountyURL
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(fetch.Config{Name: SourceName})
	}
	return &Client{
		stateURL:  stateURL,
		countyURL: countyURL,
		fetcher:   fetcher,
	}
}

// StateRegion returns the boundary of the named state.
func (c *Client) StateRegion(ctx context.Context, stateName string) (geo.Region, error) {
	states, err := c.stateCollection(ctx)
	if err != nil {
		return geo.Region{}, err
	}

	features := featuresNamed(states, stateName)
	if len(features) == 0 {
		return geo.Region{}, fmt.Errorf("%w: state %q", ErrBoundaryNotFound, stateName)
	}
	return geo.NewRegion(stateName, features...), nil
}

// CountyRegion returns the boundary of the named county within the named
// state. County names repeat across states, so candidates are narrowed to
// the ones whose centroid falls inside the state boundary.
func (c *Client) CountyRegion(ctx context.Context, stateName, countyName string) (geo.Region, error) {
	state, err := c.StateRegion(ctx, stateName)
	if err != nil {
		return geo.Region{}, err
	}
	stateGeom, err := state.Primary()
	if err != nil {
		return geo.Region{}, err
	}

	counties, err := c.countyCollection(ctx)
	if err != nil {
		return geo.Region{}, err
	}

	var features []orb.Geometry
	for _, g := range featuresNamed(counties, countyName) {
		if geo.GeometryContains(stateGeom, geo.Centroid(g)) {
			features = append(features, g)
		}
	}
	if len(features) == 0 {
		return geo.Region{}, fmt.Errorf("%w: county %q in %q", ErrBoundaryNotFound, countyName, stateName)
	}
	return geo.NewRegion(countyName, features...), nil
}

func (c *Client) stateCollection(ctx context.Context) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states == nil {
		fc, err := c.fetchCollection(ctx, c.stateURL)
		if err != nil {
			return nil, fmt.Errorf("states: %w", err)
		}
		c.states = fc
	}
	return c.states, nil
}

func (c *Client) countyCollection(ctx context.Context) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counties == nil {
		fc, err := c.fetchCollection(ctx, c.countyURL)
		if err != nil {
			return nil, fmt.Errorf("counties: %w", err)
		}
		c.counties = fc
	}
	return c.counties, nil
}

func (c *Client) fetchCollection(ctx context.Context, url string) (*geojson.FeatureCollection, error) {
	body, err := c.fetcher.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return fc, nil
}

func featuresNamed(fc *geojson.FeatureCollection, name string) []orb.Geometry {
	var out []orb.Geometry
	for _, f := range fc.Features {
		if f.Properties.MustString(nameProperty, "") == name {
			out = append(out, f.Geometry)
		}
	}
	return out
}
