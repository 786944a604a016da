package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/climate"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := climate.ParseDate(s)
	require.NoError(t, err)
	return d
}

func obs(t *testing.T, day string, value float64) climate.Observation {
	t.Helper()
	return climate.Observation{StationID: "USW00013880", Date: date(t, day), Value: value}
}

func TestParseDate(t *testing.T) {
	d, err := climate.ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())

	_, err = climate.ParseDate("2024-13-40")
	assert.ErrorIs(t, err, climate.ErrInvalidDate)

	_, err = climate.ParseDate("not a date")
	assert.ErrorIs(t, err, climate.ErrInvalidDate)
}

func TestDayKeyStableUnderYearShift(t *testing.T) {
	d := date(t, "2024-07-04")
	key := climate.DayKeyOf(d)

	for _, years := range []int{-10, -3, -1, 1, 5, 20} {
		shifted := d.AddDate(years, 0, 0)
		assert.Equal(t, key, climate.DayKeyOf(shifted), "shift by %d years", years)
	}
}

func TestDayKeyString(t *testing.T) {
	assert.Equal(t, "01-02", climate.DayKeyOf(date(t, "2024-01-02")).String())
	assert.Equal(t, "12-31", climate.DayKeyOf(date(t, "2023-12-31")).String())
}

func TestParseDayKey(t *testing.T) {
	key, err := climate.ParseDayKey("03-15")
	require.NoError(t, err)
	assert.Equal(t, climate.DayKey{Month: time.March, Day: 15}, key)

	_, err = climate.ParseDayKey("13-01")
	assert.ErrorIs(t, err, climate.ErrInvalidDate)
}

func TestSliceInclusiveBounds(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2024-01-01", 1),
		obs(t, "2024-01-02", 2),
		obs(t, "2024-01-03", 3),
		obs(t, "2024-01-04", 4),
	}

	got, err := climate.Slice(rows, date(t, "2024-01-02"), date(t, "2024-01-03"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, 3.0, got[1].Value)

	start, end := date(t, "2024-01-01"), date(t, "2024-01-04")
	all, err := climate.Slice(rows, start, end)
	require.NoError(t, err)
	assert.Len(t, all, len(rows))
	for _, row := range all {
		assert.False(t, row.Date.Before(start))
		assert.False(t, row.Date.After(end))
	}
}

func TestSliceIdempotent(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2024-01-01", 1),
		obs(t, "2024-02-01", 2),
		obs(t, "2024-03-01", 3),
	}
	start, end := date(t, "2024-01-15"), date(t, "2024-02-15")

	once, err := climate.Slice(rows, start, end)
	require.NoError(t, err)
	twice, err := climate.Slice(once, start, end)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestSliceReturnsIndependentCopy(t *testing.T) {
	rows := []climate.Observation{obs(t, "2024-01-01", 1), obs(t, "2024-01-02", 2)}

	got, err := climate.Slice(rows, date(t, "2024-01-01"), date(t, "2024-01-02"))
	require.NoError(t, err)

	got[0].Value = 99
	assert.Equal(t, 1.0, rows[0].Value, "mutating the slice must not affect the source")
}

func TestSliceEmptyTable(t *testing.T) {
	got, err := climate.Slice(nil, date(t, "2024-01-01"), date(t, "2024-01-31"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSliceInvalidRange(t *testing.T) {
	_, err := climate.Slice(nil, date(t, "2024-02-01"), date(t, "2024-01-01"))
	assert.ErrorIs(t, err, climate.ErrInvalidRange)
}

func TestCurrentPeriodLastValueWins(t *testing.T) {
	// Duplicate calendar days within the requested period resolve to the
	// later row, unlike the historical path which averages. Both behaviors
	// are pinned deliberately.
	rows := []climate.Observation{
		obs(t, "2024-01-01", 5),
		obs(t, "2024-01-01", 9),
		obs(t, "2024-01-02", 7),
	}

	got, err := climate.CurrentPeriod(rows, date(t, "2024-01-01"), date(t, "2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, map[climate.DayKey]float64{
		{Month: time.January, Day: 1}: 9,
		{Month: time.January, Day: 2}: 7,
	}, got)
}

func TestCurrentPeriodSkipsLeapDay(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2024-02-28", 1),
		obs(t, "2024-02-29", 2),
		obs(t, "2024-03-01", 3),
	}

	got, err := climate.CurrentPeriod(rows, date(t, "2024-02-28"), date(t, "2024-03-01"))
	require.NoError(t, err)
	assert.NotContains(t, got, climate.DayKey{Month: time.February, Day: 29})
	assert.Len(t, got, 2)
}

func TestHistoricalBaselineMeansDuplicates(t *testing.T) {
	// Two prior years contribute to the same day key; the baseline is the
	// arithmetic mean across all contributing rows.
	rows := []climate.Observation{
		obs(t, "2022-06-01", 10),
		obs(t, "2023-06-01", 20),
	}

	got, err := climate.HistoricalBaseline(rows,
		date(t, "2024-06-01"), date(t, "2024-06-01"),
		climate.BaselineConfig{LookbackYears: 2, TailDays: 0})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got[climate.DayKey{Month: time.June, Day: 1}], 1e-12)
}

func TestHistoricalBaselineOneYearLookback(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2023-01-01", 5),
		obs(t, "2023-01-02", 7),
		obs(t, "2024-01-01", 5),
		obs(t, "2024-01-02", 7),
	}

	got, err := climate.HistoricalBaseline(rows,
		date(t, "2024-01-01"), date(t, "2024-01-02"),
		climate.BaselineConfig{LookbackYears: 1, TailDays: 0})
	require.NoError(t, err)
	assert.Equal(t, map[climate.DayKey]float64{
		{Month: time.January, Day: 1}: 5,
		{Month: time.January, Day: 2}: 7,
	}, got)
}

func TestHistoricalBaselineTailExtendsWindow(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2023-01-02", 3),
		obs(t, "2023-01-20", 11),
	}

	// Without the tail only Jan 2 falls inside the shifted window.
	noTail, err := climate.HistoricalBaseline(rows,
		date(t, "2024-01-01"), date(t, "2024-01-02"),
		climate.BaselineConfig{LookbackYears: 1, TailDays: 0})
	require.NoError(t, err)
	assert.Len(t, noTail, 1)

	withTail, err := climate.HistoricalBaseline(rows,
		date(t, "2024-01-01"), date(t, "2024-01-02"),
		climate.BaselineConfig{LookbackYears: 1, TailDays: 30})
	require.NoError(t, err)
	assert.Len(t, withTail, 2)
	assert.InDelta(t, 11.0, withTail[climate.DayKey{Month: time.January, Day: 20}], 1e-12)
}

func TestHistoricalBaselineAbsentKeysAbsent(t *testing.T) {
	rows := []climate.Observation{obs(t, "2023-01-01", 5)}

	got, err := climate.HistoricalBaseline(rows,
		date(t, "2024-01-01"), date(t, "2024-01-03"),
		climate.BaselineConfig{LookbackYears: 1, TailDays: 0})
	require.NoError(t, err)
	assert.NotContains(t, got, climate.DayKey{Month: time.January, Day: 2},
		"missing days are absent, never zero")
	assert.Len(t, got, 1)
}

func TestHistoricalBaselineEmptyInput(t *testing.T) {
	got, err := climate.HistoricalBaseline(nil,
		date(t, "2024-01-01"), date(t, "2024-01-31"),
		climate.DefaultBaselineConfig())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoricalBaselineInvalidRange(t *testing.T) {
	_, err := climate.HistoricalBaseline(nil,
		date(t, "2024-02-01"), date(t, "2024-01-01"),
		climate.DefaultBaselineConfig())
	assert.ErrorIs(t, err, climate.ErrInvalidRange)
}

func TestHistoricalBaselineSkipsLeapDay(t *testing.T) {
	rows := []climate.Observation{
		obs(t, "2020-02-29", 42),
		obs(t, "2020-03-01", 7),
	}

	got, err := climate.HistoricalBaseline(rows,
		date(t, "2024-02-01"), date(t, "2024-03-05"),
		climate.BaselineConfig{LookbackYears: 4, TailDays: 0})
	require.NoError(t, err)
	assert.NotContains(t, got, climate.DayKey{Month: time.February, Day: 29})
	assert.Contains(t, got, climate.DayKey{Month: time.March, Day: 1})
}

func TestDefaultBaselineConfig(t *testing.T) {
	cfg := climate.DefaultBaselineConfig()
	assert.Equal(t, 10, cfg.LookbackYears)
	assert.Equal(t, 30, cfg.TailDays)
}
