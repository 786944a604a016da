package climate

import (
	"fmt"
	"time"
)

// Slice returns the observations whose date falls within [start, end],
// inclusive on both ends. The result is a fresh slice that preserves input
// order and shares no backing storage with rows; an empty window match is a
// valid empty result, not an error.
func Slice(rows []Observation, start, end time.Time) ([]Observation, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(DateLayout), end.Format(DateLayout))
	}

	out := make([]Observation, 0)
	for _, row := range rows {
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
