package utils

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// DefaultTimezone is the business timezone used when none is configured.
const DefaultTimezone = "Asia/Kuala_Lumpur"

// LoadBusinessLocation resolves the business timezone by name, falling back
// to UTC when the tzdata entry cannot be loaded. All due-date arithmetic in
// the engine is anchored to this location rather than the host's local zone.
func LoadBusinessLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		GetLogger().Warn("unknown business timezone, falling back to UTC",
			zap.String("timezone", name),
			zap.Error(err),
		)
		return time.UTC
	}
	return loc
}

// Midnight normalizes t to 00:00 of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the calendar-day difference between two instants, both
// normalized to midnight in loc. Comparing raw instants instead double
// counts or drops a day near day boundaries. Rounding absorbs the 23- and
// 25-hour days of zones that observe DST.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	f := Midnight(from, loc)
	t := Midnight(to, loc)
	return int(math.Round(t.Sub(f).Hours() / 24))
}

// DaysUntil returns the whole-day distance from now to a due date in loc.
// Positive means the due date is in the future, negative past, zero today.
func DaysUntil(due, now time.Time, loc *time.Location) int {
	return DaysBetween(now, due, loc)
}

// MonthKey returns the calendar-month bucket key (YYYY-MM) of t in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// CompareMonth orders two instants by calendar month in loc: -1 when a's
// month is before b's, 0 when equal, 1 when after.
func CompareMonth(a, b time.Time, loc *time.Location) int {
	al, bl := a.In(loc), b.In(loc)
	ak := al.Year()*12 + int(al.Month())
	bk := bl.Year()*12 + int(bl.Month())
	switch {
	case ak < bk:
		return -1
	case ak > bk:
		return 1
	}
	return 0
}
