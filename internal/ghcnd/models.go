// Package ghcnd fetches and parses NOAA Global Historical Climatology
// Network Daily (GHCND) data: per-station daily observation CSVs and the
// fixed-width station inventory.
package ghcnd

import (
	"errors"
	"time"

	"github.com/climatlas/climatlas/internal/climate"
)

// Parse errors.
var (
	// ErrMissingColumn indicates a daily CSV without a required column.
	ErrMissingColumn = errors.New("daily csv missing column")
	// ErrMalformedInventory indicates an inventory line too short to hold
	// the fixed-width columns.
	ErrMalformedInventory = errors.New("malformed inventory line")
)

// Element names used by the pipeline. The inventory and daily files carry
// many more; these are the ones the temperature workflows consume.
const (
	ElementTMax = "TMAX"
	ElementTMin = "TMIN"
)

// DailyRecord is one day of observations for one station. Temperatures are
// converted from the source's tenths of a degree to °C at parse time; a nil
// pointer marks a value the station did not report that day.
type DailyRecord struct {
	StationID string
	Date      time.Time
	Lon       float64
	Lat       float64
	TMax      *float64
	TMin      *float64
}

// Value returns the record's reading for the given element.
func (r DailyRecord) Value(element string) (float64, bool) {
	switch element {
	case ElementTMax:
		if r.TMax != nil {
			return *r.TMax, true
		}
	case ElementTMin:
		if r.TMin != nil {
			return *r.TMin, true
		}
	}
	return 0, false
}

// Observations projects daily records onto climate observations for one
// element, dropping days the element was not reported.
func Observations(records []DailyRecord, element string) []climate.Observation {
	out := make([]climate.Observation, 0, len(records))
	for _, r := range records {
		v, ok := r.Value(element)
		if !ok {
			continue
		}
		out = append(out, climate.Observation{
			StationID: r.StationID,
			Date:      r.Date,
			Value:     v,
		})
	}
	return out
}
