package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/climate"
	"github.com/climatlas/climatlas/internal/ghcnd"
	"github.com/climatlas/climatlas/internal/storage"
)

// BaselineStepConfig holds configuration for the baseline step.
type BaselineStepConfig struct {
	// StationID selects the station to baseline. Empty means the first
	// station of the run's selection.
	StationID string

	// Elements to baseline. Default: TMIN and TMAX.
	Elements []string

	// Baseline tunes the lookback window.
	Baseline climate.BaselineConfig

	Logger zerolog.Logger
}

// ProcessBaseline compares a station's current period against its historical
// baseline: per calendar day, this period's reading next to the mean of the
// same days over the lookback years. Each element yields two CSV artifacts.
type ProcessBaseline struct {
	daily DailySource
	store *storage.Store
	cfg   BaselineStepConfig
}

// NewProcessBaseline creates the baseline step.
func NewProcessBaseline(daily DailySource, store *storage.Store, cfg BaselineStepConfig) *ProcessBaseline {
	if len(cfg.Elements) == 0 {
		cfg.Elements = []string{ghcnd.ElementTMin, ghcnd.ElementTMax}
	}
	return &ProcessBaseline{daily: daily, store: store, cfg: cfg}
}

// Name implements Step.
func (s *ProcessBaseline) Name() string { return StepProcessBaseline }

// CurrentArtifact returns the current-period CSV name for an element.
func CurrentArtifact(element string) string {
	return "current_year_" + strings.ToLower(element) + ".csv"
}

// BaselineArtifact returns the historical-baseline CSV name for an element.
func BaselineArtifact(element string) string {
	return "previous_years_" + strings.ToLower(element) + ".csv"
}

// Run implements Step.
func (s *ProcessBaseline) Run(ctx context.Context, rc RunContext) ([]string, error) {
	stationID := s.cfg.StationID
	if stationID == "" {
		ids, err := loadStationIDs(ctx, s.store, rc.Folder)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("no stations selected for run %s", rc.RunID)
		}
		stationID = ids[0]
	}

	records, err := s.daily.FetchDaily(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}

	var names []string
	for _, element := range s.cfg.Elements {
		obs := ghcnd.Observations(records, element)

		current, err := climate.CurrentPeriod(obs, rc.Start, rc.End)
		if err != nil {
			return nil, fmt.Errorf("%s current period: %w", element, err)
		}
		baseline, err := climate.HistoricalBaseline(obs, rc.Start, rc.End, s.cfg.Baseline)
		if err != nil {
			return nil, fmt.Errorf("%s baseline: %w", element, err)
		}

		s.cfg.Logger.Info().
			Str("run_id", rc.RunID).
			Str("station_id", stationID).
			Str("element", element).
			Int("current_days", len(current)).
			Int("baseline_days", len(baseline)).
			Msg("computed baseline")

		for _, out := range []struct {
			name   string
			series map[climate.DayKey]float64
		}{
			{CurrentArtifact(element), current},
			{BaselineArtifact(element), baseline},
		} {
			data, err := dayValueCSV(element, out.series)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", out.name, err)
			}
			if err := s.store.Put(ctx, rc.Folder, out.name, data, "text/csv"); err != nil {
				return nil, err
			}
			names = append(names, out.name)
		}
	}
	return names, nil
}

// dayValueCSV encodes a day-keyed series as DAY,<element> rows in calendar
// order.
func dayValueCSV(element string, series map[climate.DayKey]float64) ([]byte, error) {
	keys := make([]climate.DayKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"DAY", element}); err != nil {
		return nil, err
	}
	for _, k := range keys {
		row := []string{k.String(), strconv.FormatFloat(series[k], 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
