// Package climate computes calendar-aligned climatological baselines from
// daily weather observations.
package climate

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for baseline computation.
var (
	// ErrInvalidDate indicates a date string that is not a valid ISO-8601 day.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidRange indicates a window whose start is after its end.
	ErrInvalidRange = errors.New("window start is after end")
)

// DateLayout is the day-granularity ISO-8601 layout used throughout.
const DateLayout = "2006-01-02"

// Observation is a single dated measurement from one station. Values are in
// final units; source-native scaling (e.g. tenths of a degree) is applied by
// the ingest layer before observations reach this package.
type Observation struct {
	StationID string
	Date      time.Time
	Value     float64
}

// DayKey is a year-independent (month, day) identifier used to align
// observations across years. Two dates with the same month and day map to
// the same key regardless of year.
type DayKey struct {
	Month time.Month
	Day   int
}

// DayKeyOf returns the key for a date. The year is discarded.
func DayKeyOf(date time.Time) DayKey {
	return DayKey{Month: date.Month(), Day: date.Day()}
}

// String renders the key as MM-DD, matching the artifact column format.
func (k DayKey) String() string {
	return fmt.Sprintf("%02d-%02d", int(k.Month), k.Day)
}

// Less orders keys by calendar position.
func (k DayKey) Less(other DayKey) bool {
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// isLeapDay reports whether the key is February 29, which is excluded from
// the aggregation paths entirely. The cross-year mean is not leap-aware.
func (k DayKey) isLeapDay() bool {
	return k.Month == time.February && k.Day == 29
}

// ParseDate parses a day-granularity ISO-8601 date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseDayKey parses an MM-DD day key, as written by the baseline artifacts.
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return DayKey{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DayKey{Month: t.Month(), Day: t.Day()}, nil
}
