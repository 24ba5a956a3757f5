package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var myt = time.FixedZone("MYT", 8*3600)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, time.August, 15, 12, 0, 0, 0, myt)

	assert.Equal(t, 0, DaysUntil(time.Date(2025, time.August, 15, 23, 0, 0, 0, myt), now, myt))
	assert.Equal(t, 1, DaysUntil(time.Date(2025, time.August, 16, 0, 0, 0, 0, myt), now, myt))
	assert.Equal(t, -5, DaysUntil(time.Date(2025, time.August, 10, 9, 0, 0, 0, myt), now, myt))
	assert.Equal(t, 106, DaysUntil(time.Date(2025, time.November, 29, 0, 0, 0, 0, myt), now, myt))
}

// A due date stored as UTC midnight is still "today" in the business
// timezone even while the UTC calendar day lags behind.
func TestDaysUntil_NormalizesAcrossTimezones(t *testing.T) {
	// 2025-08-15 18:30 UTC is already 2025-08-16 02:30 in MYT.
	now := time.Date(2025, time.August, 15, 18, 30, 0, 0, time.UTC)
	due := time.Date(2025, time.August, 16, 0, 0, 0, 0, myt)

	assert.Equal(t, 0, DaysUntil(due, now, myt))
	// The same instants compared in UTC would disagree by a day.
	assert.Equal(t, 1, DaysUntil(due.In(time.UTC), now, time.UTC))
}

// Zones that observe DST have one 23-hour and one 25-hour day a year; both
// must still count as exactly one calendar day.
func TestDaysBetween_AcrossDSTTransitions(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks spring forward on 2025-03-09 and fall back on 2025-11-02.
	assert.Equal(t, 1, DaysBetween(date(2025, time.March, 9, ny), date(2025, time.March, 10, ny), ny))
	assert.Equal(t, 1, DaysBetween(date(2025, time.November, 2, ny), date(2025, time.November, 3, ny), ny))
	assert.Equal(t, 30, DaysBetween(date(2025, time.March, 1, ny), date(2025, time.March, 31, ny), ny))
	assert.Equal(t, -30, DaysBetween(date(2025, time.March, 31, ny), date(2025, time.March, 1, ny), ny))
}

func date(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func TestMidnight(t *testing.T) {
	instant := time.Date(2025, time.August, 15, 23, 59, 59, 0, myt)
	m := Midnight(instant, myt)

	assert.Equal(t, 2025, m.Year())
	assert.Equal(t, time.August, m.Month())
	assert.Equal(t, 15, m.Day())
	assert.Equal(t, 0, m.Hour())
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2025-08", MonthKey(time.Date(2025, time.August, 1, 0, 0, 0, 0, myt), myt))
	// 2025-08-31 23:00 UTC is already September in MYT.
	assert.Equal(t, "2025-09", MonthKey(time.Date(2025, time.August, 31, 23, 0, 0, 0, time.UTC), myt))
}

func TestCompareMonth(t *testing.T) {
	july := time.Date(2025, time.July, 31, 0, 0, 0, 0, myt)
	august := time.Date(2025, time.August, 1, 0, 0, 0, 0, myt)
	decemberPrior := time.Date(2024, time.December, 15, 0, 0, 0, 0, myt)

	assert.Equal(t, -1, CompareMonth(july, august, myt))
	assert.Equal(t, 1, CompareMonth(august, july, myt))
	assert.Equal(t, 0, CompareMonth(august, august.AddDate(0, 0, 20), myt))
	assert.Equal(t, -1, CompareMonth(decemberPrior, july, myt))
}

func TestLoadBusinessLocation_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadBusinessLocation("Not/AZone"))
}
