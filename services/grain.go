package services

import (
	"fmt"
	"time"
)

// Grain is the booking quantum. All public times snap to it.
const Grain = 5 * time.Minute

// SnapToGrain returns the nearest grain boundary; ties round up
func SnapToGrain(t time.Time) time.Time {
	base := t.Truncate(Grain)
	if t.Sub(base) >= Grain/2 {
		return base.Add(Grain)
	}
	return base
}

// AlignedToGrain reports whether t sits exactly on a grain boundary
func AlignedToGrain(t time.Time) bool {
	return t.Second() == 0 && t.Nanosecond() == 0 && t.Minute()%5 == 0
}

// Overlap reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// StartOfDay returns the instant of 00:00:00.000 of t's civil date in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the instant of 23:59:59.999 of t's civil date in loc
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 23, 59, 59, 999000000, loc)
}

// ParseClock resolves an "HH:MM" string on the civil date of `date` in loc.
// DST transitions are handled by the timezone database, never fixed offsets.
func ParseClock(clock string, date time.Time, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q: expected HH:MM", clock)
	}
	ld := date.In(loc)
	return time.Date(ld.Year(), ld.Month(), ld.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}
