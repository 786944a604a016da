package stations_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/climatlas/climatlas/internal/stations"
)

func boundary() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{-81, 29}, {-80, 29}, {-80, 30}, {-81, 30}, {-81, 29},
	}}
}

func candidates() []stations.Station {
	return []stations.Station{
		{ID: "US1FLAL0001", Lon: -80.5, Lat: 29.5, Elements: []string{"TMAX", "TMIN", "PRCP"}, LastYear: 2025},
		{ID: "US1FLAL0002", Lon: -80.6, Lat: 29.4, Elements: []string{"PRCP"}, LastYear: 2025},
		{ID: "US1FLAL0003", Lon: -85.0, Lat: 29.5, Elements: []string{"TMAX", "TMIN"}, LastYear: 2025},
		{ID: "US1FLAL0004", Lon: -80.2, Lat: 29.8, Elements: []string{"TMAX", "TMIN"}, LastYear: 2001},
	}
}

func TestSelect(t *testing.T) {
	got := stations.Select(candidates(), stations.Filter{
		Boundary:         boundary(),
		RequiredElements: []string{"TMAX", "TMIN"},
		MinLastYear:      2025,
	})

	// 0002 lacks elements, 0003 is outside the boundary, 0004 stopped
	// reporting too early.
	assert.Len(t, got, 1)
	assert.Equal(t, "US1FLAL0001", got[0].ID)
}

func TestSelectDuplicateIDsKeepFirst(t *testing.T) {
	dupes := []stations.Station{
		{ID: "US1FLAL0001", Lon: -80.5, Lat: 29.5, Elements: []string{"TMAX"}, LastYear: 2025, FirstYear: 1950},
		{ID: "US1FLAL0001", Lon: -80.5, Lat: 29.5, Elements: []string{"TMAX"}, LastYear: 2025, FirstYear: 1999},
	}

	got := stations.Select(dupes, stations.Filter{
		Boundary:         boundary(),
		RequiredElements: []string{"TMAX"},
	})
	assert.Len(t, got, 1)
	assert.Equal(t, 1950, got[0].FirstYear)
}

func TestSelectEmptyResult(t *testing.T) {
	farAway := orb.Polygon{orb.Ring{{10, 10}, {11, 10}, {11, 11}, {10, 11}, {10, 10}}}

	got := stations.Select(candidates(), stations.Filter{Boundary: farAway})
	assert.Empty(t, got, "excluding boundary yields an empty selection, not an error")
}

func TestHasElements(t *testing.T) {
	s := stations.Station{Elements: []string{"TMAX", "TMIN"}}

	assert.True(t, s.HasElements())
	assert.True(t, s.HasElements("TMAX"))
	assert.True(t, s.HasElements("TMAX", "TMIN"))
	assert.False(t, s.HasElements("TMAX", "PRCP"))
}
