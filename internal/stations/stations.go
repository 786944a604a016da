// Package stations models the GHCN-Daily station inventory and selects
// stations inside a buffered search region.
package stations

import (
	"github.com/paulmach/orb"

	"github.com/climatlas/climatlas/internal/geo"
)

// Station is one row of the merged station inventory: a fixed observation
// site annotated with the elements it reports and its availability interval.
type Station struct {
	ID        string
	Lon       float64
	Lat       float64
	Elements  []string
	FirstYear int
	LastYear  int
}

// Point returns the station location as an (lon, lat) point.
func (s Station) Point() orb.Point {
	return orb.Point{s.Lon, s.Lat}
}

// HasElements reports whether the station reports every required element.
func (s Station) HasElements(required ...string) bool {
	for _, want := range required {
		found := false
		for _, have := range s.Elements {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter holds the conjunctive criteria for station selection.
type Filter struct {
	// Boundary is the search region; stations outside it are dropped.
	Boundary orb.Polygon

	// RequiredElements must all be reported by a selected station.
	RequiredElements []string

	// MinLastYear drops stations whose last reporting year is older.
	MinLastYear int
}

// Select returns the candidates that lie within the boundary, report every
// required element, and are still reporting in MinLastYear or later.
// Duplicate station IDs keep their first occurrence. An empty selection is a
// valid result, never an error; downstream interpolation is undefined with
// zero points and callers must handle that case explicitly.
func Select(candidates []Station, f Filter) []Station {
	seen := make(map[string]struct{}, len(candidates))
	selected := make([]Station, 0)

	for _, s := range candidates {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}

		if !geo.GeometryContains(f.Boundary, s.Point()) {
			continue
		}
		if !s.HasElements(f.RequiredElements...) {
			continue
		}
		if s.LastYear < f.MinLastYear {
			continue
		}
		selected = append(selected, s)
	}
	return selected
}
