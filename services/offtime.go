package services

import (
	"fmt"
	"time"

	"rivo_booking_go/models"
)

// OffTimeType classifies an unavailable interval
type OffTimeType string

const (
	OffTimeClosedDay OffTimeType = "closed_day"
	OffTimeBreak     OffTimeType = "break"
	OffTimeHoliday   OffTimeType = "holiday"
	OffTimeException OffTimeType = "exception"
)

// OffTimeInterval is a range during which the tenant is not accepting
// bookings. Callers compare by instant; intervals are never required to be
// grain-aligned.
type OffTimeInterval struct {
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Type   OffTimeType `json:"type"`
	Reason string      `json:"reason"`
}

// ComputeOffTimes derives the ordered, non-overlapping unavailable intervals
// for [from, to], walking civil days in the tenant timezone
func ComputeOffTimes(cfg *models.TenantConfig, from, to time.Time) ([]OffTimeInterval, error) {
	loc := cfg.Location()
	var offTimes []OffTimeInterval

	for day := StartOfDay(from, loc); !day.After(to); day = day.AddDate(0, 0, 1) {
		dayOffTimes, err := computeDayOffTimes(cfg, day, loc)
		if err != nil {
			return nil, err
		}
		offTimes = append(offTimes, dayOffTimes...)
	}

	return offTimes, nil
}

// computeDayOffTimes derives the off-time intervals of a single civil day
func computeDayOffTimes(cfg *models.TenantConfig, day time.Time, loc *time.Location) ([]OffTimeInterval, error) {
	dayStart := StartOfDay(day, loc)
	dayEnd := EndOfDay(day, loc)

	// 1. Date exception takes precedence over the weekly template
	intervalType := OffTimeClosedDay
	var working []models.TimeRange

	if ex := cfg.ExceptionFor(dayStart.Format("2006-01-02")); ex != nil {
		if ex.Closed {
			reason := ex.Reason
			if reason == "" {
				reason = "Holiday"
			}
			return []OffTimeInterval{{Start: dayStart, End: dayEnd, Type: OffTimeHoliday, Reason: reason}}, nil
		}
		if ex.Open != "" && ex.Close != "" {
			working = []models.TimeRange{{Open: ex.Open, Close: ex.Close}}
			intervalType = OffTimeException
		}
	}

	// 2. Weekly template
	if working == nil {
		tmpl := cfg.DayTemplate(int(dayStart.Weekday()))
		if tmpl == nil || !tmpl.Enabled || len(tmpl.Slots) == 0 {
			return []OffTimeInterval{{Start: dayStart, End: dayEnd, Type: OffTimeClosedDay, Reason: "Closed"}}, nil
		}
		working = tmpl.Slots
	}

	var offTimes []OffTimeInterval
	var prevClose time.Time

	for i, rng := range working {
		open, err := ParseClock(rng.Open, dayStart, loc)
		if err != nil {
			return nil, fmt.Errorf("availability interval %d: %w", i, err)
		}
		closeAt, err := ParseClock(rng.Close, dayStart, loc)
		if err != nil {
			return nil, fmt.Errorf("availability interval %d: %w", i, err)
		}

		if i == 0 {
			// 3. Before the first opening
			if dayStart.Before(open) {
				offTimes = append(offTimes, OffTimeInterval{
					Start: dayStart, End: open, Type: intervalType, Reason: "Before business hours",
				})
			}
		} else if prevClose.Before(open) {
			// 4. Gap between consecutive intervals
			offTimes = append(offTimes, OffTimeInterval{
				Start: prevClose, End: open, Type: OffTimeBreak, Reason: "Break",
			})
		}
		prevClose = closeAt
	}

	// 5. After the last closing
	if prevClose.Before(dayEnd) {
		offTimes = append(offTimes, OffTimeInterval{
			Start: prevClose, End: dayEnd, Type: intervalType, Reason: "After business hours",
		})
	}

	return offTimes, nil
}

// IsTimeAvailable reports whether [start, end) avoids every off-time interval
func IsTimeAvailable(start, end time.Time, offTimes []OffTimeInterval) bool {
	for _, o := range offTimes {
		if Overlap(start, end, o.Start, o.End) {
			return false
		}
	}
	return true
}

// IntersectingOffTimes returns the off-time intervals that overlap
// [start, end), for error messaging
func IntersectingOffTimes(start, end time.Time, offTimes []OffTimeInterval) []OffTimeInterval {
	var intersecting []OffTimeInterval
	for _, o := range offTimes {
		if Overlap(start, end, o.Start, o.End) {
			intersecting = append(intersecting, o)
		}
	}
	return intersecting
}

// offTimeConflictMessage names the first intersecting off-time for the caller
func offTimeConflictMessage(o OffTimeInterval) string {
	switch o.Type {
	case OffTimeBreak:
		return "requested time conflicts with a break"
	case OffTimeHoliday:
		return "requested time falls on a holiday"
	case OffTimeException:
		return "requested time is outside the modified hours for that day"
	default:
		return "requested time is outside business hours"
	}
}
