package services

import (
	"fmt"
	"time"

	"rivo_booking_go/models"

	"gorm.io/gorm"
)

// occupiedInterval is a prefetched appointment or live reservation used for
// in-memory capacity counting during slot generation
type occupiedInterval struct {
	Start time.Time
	End   time.Time
}

// GenerateSlots produces the ordered candidate slots of a service over
// [from, to]. Candidate starts advance at the tenant's timeSlotDuration
// stride; the service duration may exceed the stride, in which case offered
// slots overlap and the capacity count keeps them honest.
func GenerateSlots(db *gorm.DB, tenantID string, cfg *models.TenantConfig, serviceID string, from, to, now time.Time) ([]models.TimeSlot, error) {
	svc := cfg.ServiceByID(serviceID)
	if svc == nil {
		return nil, fmt.Errorf("%w: unknown service %s", ErrInvalidInput, serviceID)
	}
	if !svc.Enabled {
		return []models.TimeSlot{}, nil
	}

	loc := cfg.Location()
	duration := time.Duration(svc.DurationMinutes) * time.Minute
	bufferBefore := time.Duration(svc.BufferBeforeMinutes) * time.Minute
	bufferAfter := time.Duration(svc.BufferAfterMinutes) * time.Minute
	stride := cfg.TimeSlotDuration()
	totalCapacity := svc.MaxSimultaneousBookings

	minLead := now.Add(time.Duration(cfg.BookingLimits.MinAdvanceBookingMinutes) * time.Minute)
	var horizon time.Time
	if cfg.BookingLimits.AdvanceBookingDays > 0 {
		horizon = now.AddDate(0, 0, cfg.BookingLimits.AdvanceBookingDays)
	}

	// Prefetch occupancy once for the whole range, padded by the buffers so
	// edge slots count neighbours correctly
	queryFrom := StartOfDay(from, loc).Add(-bufferBefore - duration)
	queryTo := EndOfDay(to, loc).Add(bufferAfter + duration)

	appointments, reservations, err := fetchOccupancy(db, tenantID, serviceID, queryFrom, queryTo, now)
	if err != nil {
		return nil, err
	}

	slots := []models.TimeSlot{}

	for day := StartOfDay(from, loc); !day.After(to); day = day.AddDate(0, 0, 1) {
		if !horizon.IsZero() && day.After(horizon) {
			break // past the advance-booking horizon, and every later day is too
		}

		windows, err := workingWindows(cfg, day, loc)
		if err != nil {
			return nil, err
		}
		if len(windows) == 0 {
			continue
		}

		offTimes, err := offTimeCache.DayOffTimes(tenantID, cfg, day)
		if err != nil {
			return nil, err
		}

		for _, w := range windows {
			for s := w.open; ; s = s.Add(stride) {
				e := s.Add(duration)
				if e.Add(bufferAfter).After(w.close) {
					break // no room left in this window
				}
				if s.Before(minLead) {
					continue
				}

				effStart := s.Add(-bufferBefore)
				effEnd := e.Add(bufferAfter)

				slot := models.TimeSlot{
					Start:         s.UTC(),
					End:           e.UTC(),
					TotalCapacity: totalCapacity,
				}

				if intersecting := IntersectingOffTimes(effStart, effEnd, offTimes); len(intersecting) > 0 {
					slot.Available = false
					slot.CapacityPercentage = 100
					slot.Reason = offTimeConflictMessage(intersecting[0])
					slots = append(slots, slot)
					continue
				}

				used := countOccupied(appointments, effStart, effEnd) + countOccupied(reservations, effStart, effEnd)
				capacity := totalCapacity - used
				if capacity < 0 {
					capacity = 0
				}

				slot.Capacity = capacity
				slot.Available = capacity > 0
				slot.CapacityPercentage = usedPercentage(used, totalCapacity)
				if !slot.Available {
					slot.Reason = "fully booked"
				}
				slots = append(slots, slot)
			}
		}
	}

	return slots, nil
}

// workingWindow is one open interval of a civil day, resolved to instants
type workingWindow struct {
	open  time.Time
	close time.Time
}

// workingWindows resolves the effective open intervals of a day: the date
// exception when present, the weekly template otherwise, nothing when closed
func workingWindows(cfg *models.TenantConfig, day time.Time, loc *time.Location) ([]workingWindow, error) {
	dayStart := StartOfDay(day, loc)

	var ranges []models.TimeRange
	if ex := cfg.ExceptionFor(dayStart.Format("2006-01-02")); ex != nil {
		if ex.Closed {
			return nil, nil
		}
		if ex.Open != "" && ex.Close != "" {
			ranges = []models.TimeRange{{Open: ex.Open, Close: ex.Close}}
		}
	}
	if ranges == nil {
		tmpl := cfg.DayTemplate(int(dayStart.Weekday()))
		if tmpl == nil || !tmpl.Enabled {
			return nil, nil
		}
		ranges = tmpl.Slots
	}

	windows := make([]workingWindow, 0, len(ranges))
	for _, rng := range ranges {
		open, err := ParseClock(rng.Open, dayStart, loc)
		if err != nil {
			return nil, err
		}
		closeAt, err := ParseClock(rng.Close, dayStart, loc)
		if err != nil {
			return nil, err
		}
		windows = append(windows, workingWindow{open: open, close: closeAt})
	}
	return windows, nil
}

// fetchOccupancy loads confirmed appointments and live reservations
// overlapping [from, to) for one (tenant, service)
func fetchOccupancy(db *gorm.DB, tenantID, serviceID string, from, to, now time.Time) (appointments, reservations []occupiedInterval, err error) {
	var appts []models.Appointment
	err = db.Where("tenant_id = ? AND service_id = ? AND status = ?", tenantID, serviceID, models.AppointmentStatusConfirmed).
		Where("slot_start < ? AND slot_end > ?", to, from).
		Find(&appts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	for _, a := range appts {
		appointments = append(appointments, occupiedInterval{Start: a.SlotStart, End: a.SlotEnd})
	}

	var holds []models.Reservation
	err = db.Where("tenant_id = ? AND service_id = ? AND expires_at > ?", tenantID, serviceID, now).
		Where("slot_start < ? AND slot_end > ?", to, from).
		Find(&holds).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch reservations: %w", err)
	}
	for _, r := range holds {
		reservations = append(reservations, occupiedInterval{Start: r.SlotStart, End: r.SlotEnd})
	}

	return appointments, reservations, nil
}

// countOccupied counts intervals overlapping [start, end)
func countOccupied(intervals []occupiedInterval, start, end time.Time) int {
	count := 0
	for _, iv := range intervals {
		if Overlap(start, end, iv.Start, iv.End) {
			count++
		}
	}
	return count
}

// usedPercentage converts an occupancy count to 0-100
func usedPercentage(used, total int) int {
	if total <= 0 {
		return 100
	}
	pct := used * 100 / total
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}
