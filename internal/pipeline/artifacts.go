package pipeline

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/climatlas/climatlas/internal/geo"
	"github.com/climatlas/climatlas/internal/stations"
	"github.com/climatlas/climatlas/internal/storage"
)

// GeoJSON property names shared by the artifacts.
const (
	propName      = "NAME"
	propStationID = "Station ID"
	propTMin      = "TMIN"
	propTMax      = "TMAX"
)

// StationMeans is one station's period-mean temperatures, the rows of the
// temperature artifact.
type StationMeans struct {
	StationID string
	Point     orb.Point
	TMin      float64
	TMax      float64
}

func regionCollection(r geo.Region) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range r.Features {
		f := geojson.NewFeature(g)
		f.Properties[propName] = r.Name
		fc.Append(f)
	}
	return fc
}

func boundaryCollection(p orb.Polygon) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(p))
	return fc
}

func stationCollection(selected []stations.Station) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range selected {
		f := geojson.NewFeature(s.Point())
		f.Properties[propStationID] = s.ID
		fc.Append(f)
	}
	return fc
}

func temperatureCollection(rows []StationMeans) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		f := geojson.NewFeature(row.Point)
		f.Properties[propStationID] = row.StationID
		f.Properties[propTMin] = row.TMin
		f.Properties[propTMax] = row.TMax
		fc.Append(f)
	}
	return fc
}

func loadCollection(ctx context.Context, store *storage.Store, folder, name string) (*geojson.FeatureCollection, error) {
	data, err := store.Get(ctx, folder, name)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return fc, nil
}

func loadRegion(ctx context.Context, store *storage.Store, folder, name string) (geo.Region, error) {
	fc, err := loadCollection(ctx, store, folder, name)
	if err != nil {
		return geo.Region{}, err
	}

	region := geo.Region{}
	for _, f := range fc.Features {
		if region.Name == "" {
			region.Name = f.Properties.MustString(propName, "")
		}
		region.Features = append(region.Features, f.Geometry)
	}
	return region, nil
}

func loadStationIDs(ctx context.Context, store *storage.Store, folder string) ([]string, error) {
	fc, err := loadCollection(ctx, store, folder, ArtifactStations)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if id := f.Properties.MustString(propStationID, ""); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func loadTemperature(ctx context.Context, store *storage.Store, folder string) ([]StationMeans, error) {
	fc, err := loadCollection(ctx, store, folder, ArtifactTemperature)
	if err != nil {
		return nil, err
	}

	rows := make([]StationMeans, 0, len(fc.Features))
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		rows = append(rows, StationMeans{
			StationID: f.Properties.MustString(propStationID, ""),
			Point:     pt,
			TMin:      f.Properties.MustFloat64(propTMin, 0),
			TMax:      f.Properties.MustFloat64(propTMax, 0),
		})
	}
	return rows, nil
}
