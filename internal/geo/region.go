// Package geo derives buffered station-search regions from geographic
// boundaries.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Sentinel errors for region geometry.
var (
	// ErrEmptyRegion indicates a region with no geometry to bound.
	ErrEmptyRegion = errors.New("region has no geometry")
	// ErrMultiFeature indicates a multi-feature region under RequireSingle.
	ErrMultiFeature = errors.New("region has multiple features")
)

// FeaturePolicy decides how a region with more than one feature is reduced
// to the single geometry the bounding operations work on.
type FeaturePolicy int

const (
	// PrimaryFeature uses the first feature and ignores the rest. This is
	// the behavior of the upstream boundary datasets, where a named state
	// or county is expected to be a single feature.
	PrimaryFeature FeaturePolicy = iota

	// RequireSingle fails with ErrMultiFeature when more than one feature
	// is present.
	RequireSingle
)

// Region is a named geographic area backed by one or more boundary features.
type Region struct {
	Name     string
	Features []orb.Geometry
	Policy   FeaturePolicy
}

// NewRegion builds a region over the given features with the PrimaryFeature
// policy.
func NewRegion(name string, features ...orb.Geometry) Region {
	return Region{Name: name, Features: features}
}

// Primary returns the geometry the region's policy selects.
func (r Region) Primary() (orb.Geometry, error) {
	switch {
	case len(r.Features) == 0:
		return nil, fmt.Errorf("%w: %q", ErrEmptyRegion, r.Name)
	case len(r.Features) > 1 && r.Policy == RequireSingle:
		return nil, fmt.Errorf("%w: %q has %d features", ErrMultiFeature, r.Name, len(r.Features))
	default:
		return r.Features[0], nil
	}
}

// Bounds returns the axis-aligned envelope of the region's primary feature.
func Bounds(r Region) (orb.Bound, error) {
	g, err := r.Primary()
	if err != nil {
		return orb.Bound{}, err
	}
	return g.Bound(), nil
}

// OuterBoundary expands the region's envelope by bufferDegrees on every side
// and returns the padded rectangle as a closed polygon. The buffer is a plain
// angular margin, not a geodesic distance; the approximation only holds at
// the scale of a single county or state.
func OuterBoundary(r Region, bufferDegrees float64) (orb.Polygon, error) {
	bound, err := Bounds(r)
	if err != nil {
		return nil, err
	}
	return bound.Pad(bufferDegrees).ToPolygon(), nil
}

// GeometryContains reports whether the point lies within or on the boundary
// of the geometry. Only surface geometries can contain a point.
func GeometryContains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	case orb.Bound:
		return geom.Contains(p)
	default:
		return false
	}
}

// Centroid returns the area-weighted centroid of the geometry.
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}
