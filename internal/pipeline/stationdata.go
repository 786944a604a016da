package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/climatlas/climatlas/internal/fetch"
	"github.com/climatlas/climatlas/internal/ghcnd"
	"github.com/climatlas/climatlas/internal/storage"
)

// DailySource fetches one station's daily observation series.
type DailySource interface {
	FetchDaily(ctx context.Context, stationID string) ([]ghcnd.DailyRecord, error)
}

// StationDataConfig holds configuration for the station-data step.
type StationDataConfig struct {
	// Concurrency is the number of parallel archive downloads. Default: 4.
	Concurrency int

	Logger zerolog.Logger
}

// FetchStationData downloads the daily series of every selected station,
// reduces the run period to per-station mean TMIN and TMAX, and writes the
// result as the temperature artifact.
type FetchStationData struct {
	daily DailySource
	store *storage.Store
	cfg   StationDataConfig
}

// NewFetchStationData creates the station-data step.
func NewFetchStationData(daily DailySource, store *storage.Store, cfg StationDataConfig) *FetchStationData {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &FetchStationData{daily: daily, store: store, cfg: cfg}
}

// Name implements Step.
func (s *FetchStationData) Name() string { return StepFetchStationData }

type stationResult struct {
	idx int
	row StationMeans
	ok  bool
	err error
}

// Run implements Step. Downloads run in a bounded worker pool; the output
// keeps the selection order regardless of download completion order.
func (s *FetchStationData) Run(ctx context.Context, rc RunContext) ([]string, error) {
	ids, err := loadStationIDs(ctx, s.store, rc.Folder)
	if err != nil {
		return nil, err
	}

	idsChan := make(chan int, len(ids))
	resultsChan := make(chan stationResult, len(ids))

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idsChan {
				select {
				case <-ctx.Done():
					resultsChan <- stationResult{idx: idx, err: ctx.Err()}
				default:
					row, ok, err := s.stationMeans(ctx, rc, ids[idx])
					resultsChan <- stationResult{idx: idx, row: row, ok: ok, err: err}
				}
			}
		}()
	}

	for idx := range ids {
		idsChan <- idx
	}
	close(idsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	ordered := make([]stationResult, len(ids))
	for res := range resultsChan {
		ordered[res.idx] = res
	}

	var rows []StationMeans
	for _, res := range ordered {
		if res.err != nil {
			return nil, res.err
		}
		if res.ok {
			rows = append(rows, res.row)
		}
	}
	s.cfg.Logger.Info().
		Str("run_id", rc.RunID).
		Int("stations", len(ids)).
		Int("with_data", len(rows)).
		Msg("reduced station observations")

	data, err := temperatureCollection(rows).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactTemperature, err)
	}
	if err := s.store.Put(ctx, rc.Folder, ArtifactTemperature, data, geoJSONContentType); err != nil {
		return nil, err
	}
	return []string{ArtifactTemperature}, nil
}

// stationMeans reduces one station's period observations. Stations missing
// from the archive, or with no usable readings in the period, are skipped
// rather than failing the run.
func (s *FetchStationData) stationMeans(ctx context.Context, rc RunContext, id string) (StationMeans, bool, error) {
	records, err := s.daily.FetchDaily(ctx, id)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			s.cfg.Logger.Warn().Str("run_id", rc.RunID).Str("station_id", id).Msg("station has no daily archive")
			return StationMeans{}, false, nil
		}
		return StationMeans{}, false, fmt.Errorf("station %s: %w", id, err)
	}

	var (
		point      orb.Point
		tmin, tmax []float64
	)
	for _, rec := range records {
		if rec.Date.Before(rc.Start) || rec.Date.After(rc.End) {
			continue
		}
		point = orb.Point{rec.Lon, rec.Lat}
		if v, ok := rec.Value(ghcnd.ElementTMin); ok {
			tmin = append(tmin, v)
		}
		if v, ok := rec.Value(ghcnd.ElementTMax); ok {
			tmax = append(tmax, v)
		}
	}
	if len(tmin) == 0 || len(tmax) == 0 {
		return StationMeans{}, false, nil
	}

	return StationMeans{
		StationID: id,
		Point:     point,
		TMin:      stat.Mean(tmin, nil),
		TMax:      stat.Mean(tmax, nil),
	}, true, nil
}
