package climate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// BaselineConfig controls the historical aggregation window.
type BaselineConfig struct {
	// LookbackYears is how many prior years contribute to the baseline.
	// Values <= 0 fall back to 10.
	LookbackYears int

	// TailDays extends each shifted window past its end, smoothing the
	// discontinuity that calendar drift introduces at the trailing edge.
	// Zero is honored as-is; negative values are treated as zero.
	TailDays int
}

// DefaultBaselineConfig returns the aggregation defaults: ten years of
// lookback with a thirty-day tail.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{
		LookbackYears: 10,
		TailDays:      30,
	}
}

// CurrentPeriod projects the observations in [start, end] onto their day
// keys. When two rows in the window share a key, the later row in input
// order wins. This deliberately differs from HistoricalBaseline, which
// averages duplicates; both behaviors are pinned by tests.
func CurrentPeriod(rows []Observation, start, end time.Time) (map[DayKey]float64, error) {
	window, err := Slice(rows, start, end)
	if err != nil {
		return nil, err
	}

	out := make(map[DayKey]float64, len(window))
	for _, row := range window {
		key := DayKeyOf(row.Date)
		if key.isLeapDay() {
			continue
		}
		out[key] = row.Value
	}
	return out, nil
}

// HistoricalBaseline computes, for each day key, the arithmetic mean of the
// observations falling in the same calendar window across the previous
// cfg.LookbackYears years, each shifted window extended by cfg.TailDays.
// Keys with no contributing rows are absent from the result; an empty map is
// a valid outcome that callers must tolerate.
//
// Year shifting subtracts whole calendar years from the window boundaries.
// time.AddDate normalizes February 29 to March 1 on non-leap years, which can
// skip or double-count the leap day; that is acceptable because day-key space
// excludes February 29.
func HistoricalBaseline(rows []Observation, start, end time.Time, cfg BaselineConfig) (map[DayKey]float64, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(DateLayout), end.Format(DateLayout))
	}

	lookback := cfg.LookbackYears
	if lookback <= 0 {
		lookback = DefaultBaselineConfig().LookbackYears
	}
	tail := cfg.TailDays
	if tail < 0 {
		tail = 0
	}

	samples := make(map[DayKey][]float64)
	for offset := 1; offset <= lookback; offset++ {
		shiftedStart := start.AddDate(-offset, 0, 0)
		shiftedEnd := end.AddDate(-offset, 0, 0).AddDate(0, 0, tail)

		window, err := Slice(rows, shiftedStart, shiftedEnd)
		if err != nil {
			return nil, err
		}
		for _, row := range window {
			key := DayKeyOf(row.Date)
			if key.isLeapDay() {
				continue
			}
			samples[key] = append(samples[key], row.Value)
		}
	}

	out := make(map[DayKey]float64, len(samples))
	for key, values := range samples {
		out[key] = stat.Mean(values, nil)
	}
	return out, nil
}
